package memory

import (
	"context"
	"sort"
	"time"

	"crm-backend/internal/domain/identity"
	"crm-backend/internal/domain/visibility"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u identity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.emailIndex[u.Email]; taken {
		return identity.ErrEmailTaken
	}
	r.s.users[u.ID] = u
	r.s.emailIndex[u.Email] = u.ID
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (identity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return identity.User{}, identity.ErrNotFound
	}
	return u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (identity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emailIndex[email]
	if !ok {
		return identity.User{}, identity.ErrNotFound
	}
	return r.s.users[id], nil
}

func (r *userRepo) List(_ context.Context) ([]identity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]identity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *userRepo) UpdateRole(_ context.Context, id string, role visibility.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

func (r *userRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}

func (r *userRepo) SaveRefreshToken(_ context.Context, t identity.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.refreshByTok[t.Token] = t
	return nil
}

func (r *userRepo) GetRefreshToken(_ context.Context, token string) (identity.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.refreshByTok[token]
	if !ok {
		return identity.RefreshToken{}, identity.ErrNotFound
	}
	return t, nil
}

func (r *userRepo) RotateRefreshToken(_ context.Context, id, newToken string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for tok, t := range r.s.refreshByTok {
		if t.ID == id {
			delete(r.s.refreshByTok, tok)
			t.Token = newToken
			t.ExpiresAt = expiresAt
			r.s.refreshByTok[newToken] = t
			return nil
		}
	}
	return identity.ErrNotFound
}

func (r *userRepo) DeleteRefreshToken(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.refreshByTok, token)
	return nil
}
