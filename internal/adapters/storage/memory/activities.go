package memory

import (
	"context"

	"crm-backend/internal/domain/activities"
	"crm-backend/internal/domain/audit"
)

type activityRepo struct{ s *Store }

func (r *activityRepo) Create(_ context.Context, a activities.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.feed = append(r.s.feed, a)
	return nil
}

// ListByEntity devuelve lo más reciente primero.
func (r *activityRepo) ListByEntity(_ context.Context, kind audit.EntityKind, entityID string, limit int) ([]activities.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]activities.Activity, 0, limit)
	for i := len(r.s.feed) - 1; i >= 0 && len(out) < limit; i-- {
		a := r.s.feed[i]
		if a.EntityKind == kind && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}
