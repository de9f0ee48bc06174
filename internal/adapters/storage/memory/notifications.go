package memory

import (
	"context"
	"sort"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/notifications"
)

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(_ context.Context, n notifications.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifs[n.ID] = n
	return nil
}

func (r *notificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool) ([]notifications.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]notifications.Notification, 0)
	for _, n := range r.s.notifs {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *notificationRepo) MarkRead(_ context.Context, id, userID string) (notifications.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifs[id]
	if !ok || n.UserID != userID {
		return notifications.Notification{}, audit.ErrNotFound
	}
	n.Read = true
	r.s.notifs[id] = n
	return n, nil
}

func (r *notificationRepo) MarkAllRead(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	updated := 0
	for id, n := range r.s.notifs {
		if n.UserID == userID && !n.Read {
			n.Read = true
			r.s.notifs[id] = n
			updated++
		}
	}
	return updated, nil
}

func (r *notificationRepo) Delete(_ context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifs[id]
	if !ok || n.UserID != userID {
		return audit.ErrNotFound
	}
	delete(r.s.notifs, id)
	return nil
}
