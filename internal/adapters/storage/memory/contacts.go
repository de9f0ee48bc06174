package memory

import (
	"context"
	"errors"
	"sort"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/contacts"
	"crm-backend/internal/domain/visibility"
)

type contactRepo struct{ s *Store }

func (r *contactRepo) Create(_ context.Context, c contacts.Contact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.contacts[c.ID] = c
	return nil
}

func (r *contactRepo) GetByID(_ context.Context, id string) (contacts.Contact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.contacts[id]
	if !ok {
		return contacts.Contact{}, audit.ErrNotFound
	}
	return c, nil
}

func (r *contactRepo) List(_ context.Context, scope visibility.Scope) ([]contacts.Contact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]contacts.Contact, 0)
	for _, c := range r.s.contacts {
		if visibility.Allows(scope, c.OwnerID, r.s.teamOfLocked(c.OwnerID)) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *contactRepo) Update(_ context.Context, c contacts.Contact, recs []audit.ChangeRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.contacts[c.ID]; !ok {
		return audit.ErrNotFound
	}
	if !validRecords(c.ID, recs) {
		return errors.New("invalid change records")
	}
	r.s.contacts[c.ID] = c
	r.s.history = append(r.s.history, recs...)
	return nil
}

func (r *contactRepo) Delete(_ context.Context, id string, terminal audit.ChangeRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.contacts[id]; !ok {
		return audit.ErrNotFound
	}
	if !validRecords(id, []audit.ChangeRecord{terminal}) {
		return errors.New("invalid change record")
	}
	delete(r.s.contacts, id)
	r.s.history = append(r.s.history, terminal)
	return nil
}

func (r *contactRepo) Count(_ context.Context, scope visibility.Scope) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, c := range r.s.contacts {
		if visibility.Allows(scope, c.OwnerID, r.s.teamOfLocked(c.OwnerID)) {
			n++
		}
	}
	return n, nil
}
