package memory

import (
	"context"
	"errors"
	"sort"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/deals"
	"crm-backend/internal/domain/visibility"
)

type dealRepo struct{ s *Store }

func (r *dealRepo) Create(_ context.Context, d deals.Deal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.deals[d.ID] = d
	return nil
}

func (r *dealRepo) GetByID(_ context.Context, id string) (deals.Deal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.deals[id]
	if !ok {
		return deals.Deal{}, audit.ErrNotFound
	}
	return d, nil
}

func (r *dealRepo) List(_ context.Context, scope visibility.Scope, f deals.ListFilter) ([]deals.Deal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]deals.Deal, 0)
	for _, d := range r.s.deals {
		if f.Stage != "" && d.Stage != f.Stage {
			continue
		}
		if visibility.Allows(scope, d.OwnerID, r.s.teamOfLocked(d.OwnerID)) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *dealRepo) Update(_ context.Context, d deals.Deal, recs []audit.ChangeRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.deals[d.ID]; !ok {
		return audit.ErrNotFound
	}
	if !validRecords(d.ID, recs) {
		return errors.New("invalid change records")
	}
	r.s.deals[d.ID] = d
	r.s.history = append(r.s.history, recs...)
	return nil
}

func (r *dealRepo) Delete(_ context.Context, id string, terminal audit.ChangeRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.deals[id]; !ok {
		return audit.ErrNotFound
	}
	if !validRecords(id, []audit.ChangeRecord{terminal}) {
		return errors.New("invalid change record")
	}
	delete(r.s.deals, id)
	r.s.history = append(r.s.history, terminal)
	return nil
}

func (r *dealRepo) StatsFor(_ context.Context, scope visibility.Scope) (deals.Stats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var st deals.Stats
	for _, d := range r.s.deals {
		if !visibility.Allows(scope, d.OwnerID, r.s.teamOfLocked(d.OwnerID)) {
			continue
		}
		st.Total++
		switch d.Stage {
		case deals.StageClosedWon:
			st.WonCount++
			st.ClosedCount++
			st.WonRevenue += d.Value
		case deals.StageClosedLost:
			st.ClosedCount++
		default:
			st.Active++
			st.Pipeline += d.Value
		}
	}
	return st, nil
}
