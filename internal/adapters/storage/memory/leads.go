package memory

import (
	"context"
	"errors"
	"sort"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/leads"
	"crm-backend/internal/domain/visibility"
)

type leadRepo struct{ s *Store }

func (r *leadRepo) Create(_ context.Context, l leads.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.leads[l.ID] = l
	return nil
}

func (r *leadRepo) GetByID(_ context.Context, id string) (leads.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.leads[id]
	if !ok {
		return leads.Lead{}, audit.ErrNotFound
	}
	return l, nil
}

func (r *leadRepo) List(_ context.Context, scope visibility.Scope, f leads.ListFilter) ([]leads.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]leads.Lead, 0)
	for _, l := range r.s.leads {
		if f.Stage != "" && l.Stage != f.Stage {
			continue
		}
		if visibility.Allows(scope, l.OwnerID, r.s.teamOfLocked(l.OwnerID)) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Update aplica lead + historial como unidad: si los registros no pasan la
// validación no se toca nada.
func (r *leadRepo) Update(_ context.Context, l leads.Lead, recs []audit.ChangeRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.leads[l.ID]; !ok {
		return audit.ErrNotFound
	}
	if !validRecords(l.ID, recs) {
		return errors.New("invalid change records")
	}
	r.s.leads[l.ID] = l
	r.s.history = append(r.s.history, recs...)
	return nil
}

func (r *leadRepo) Delete(_ context.Context, id string, terminal audit.ChangeRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.leads[id]; !ok {
		return audit.ErrNotFound
	}
	if !validRecords(id, []audit.ChangeRecord{terminal}) {
		return errors.New("invalid change record")
	}
	delete(r.s.leads, id)
	// el historial previo del lead se conserva
	r.s.history = append(r.s.history, terminal)
	return nil
}

func (r *leadRepo) CountByStage(_ context.Context, scope visibility.Scope) (map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]int)
	for _, l := range r.s.leads {
		if visibility.Allows(scope, l.OwnerID, r.s.teamOfLocked(l.OwnerID)) {
			out[l.Stage]++
		}
	}
	return out, nil
}

func (r *leadRepo) CountByOwner(_ context.Context, scope visibility.Scope) (map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]int)
	for _, l := range r.s.leads {
		if visibility.Allows(scope, l.OwnerID, r.s.teamOfLocked(l.OwnerID)) {
			out[l.OwnerID]++
		}
	}
	return out, nil
}
