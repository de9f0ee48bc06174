package memory

import (
	"context"
	"sort"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/visibility"
)

type historyRepo struct{ s *Store }

// ListByEntity devuelve la mutación más reciente primero; dentro de una
// mutación (mismo timestamp) se conserva el orden del patch.
func (r *historyRepo) ListByEntity(_ context.Context, kind audit.EntityKind, entityID string) ([]audit.ChangeRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]audit.ChangeRecord, 0)
	for _, rec := range r.s.history {
		if rec.EntityKind == kind && rec.EntityID == entityID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// ListRecent filtra por quién hizo el cambio: un SALES ve su propia
// actividad, un MANAGER la de su equipo.
func (r *historyRepo) ListRecent(_ context.Context, scope visibility.Scope, limit int) ([]audit.ChangeRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]audit.ChangeRecord, 0, limit)
	for i := len(r.s.history) - 1; i >= 0 && len(out) < limit; i-- {
		rec := r.s.history[i]
		if visibility.Allows(scope, rec.ChangedBy, r.s.teamOfLocked(rec.ChangedBy)) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *historyRepo) DeleteByIDs(_ context.Context, ids []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := r.s.history[:0]
	deleted := 0
	for _, rec := range r.s.history {
		if drop[rec.ID] {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	r.s.history = kept
	return deleted, nil
}
