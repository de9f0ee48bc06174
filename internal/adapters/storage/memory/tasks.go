package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/tasks"
	"crm-backend/internal/domain/visibility"
)

type taskRepo struct{ s *Store }

func (r *taskRepo) Create(_ context.Context, t tasks.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tasks[t.ID] = t
	return nil
}

func (r *taskRepo) GetByID(_ context.Context, id string) (tasks.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return tasks.Task{}, audit.ErrNotFound
	}
	return t, nil
}

func (r *taskRepo) List(_ context.Context, scope visibility.Scope, f tasks.ListFilter) ([]tasks.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]tasks.Task, 0)
	for _, t := range r.s.tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if visibility.Allows(scope, t.OwnerID, r.s.teamOfLocked(t.OwnerID)) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *taskRepo) Update(_ context.Context, t tasks.Task, recs []audit.ChangeRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[t.ID]; !ok {
		return audit.ErrNotFound
	}
	if !validRecords(t.ID, recs) {
		return errors.New("invalid change records")
	}
	r.s.tasks[t.ID] = t
	r.s.history = append(r.s.history, recs...)
	return nil
}

func (r *taskRepo) Delete(_ context.Context, id string, terminal audit.ChangeRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return audit.ErrNotFound
	}
	if !validRecords(id, []audit.ChangeRecord{terminal}) {
		return errors.New("invalid change record")
	}
	delete(r.s.tasks, id)
	r.s.history = append(r.s.history, terminal)
	return nil
}

func (r *taskRepo) CountPending(_ context.Context, scope visibility.Scope) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, t := range r.s.tasks {
		if t.Status == tasks.StatusCompleted {
			continue
		}
		if visibility.Allows(scope, t.OwnerID, r.s.teamOfLocked(t.OwnerID)) {
			n++
		}
	}
	return n, nil
}

func (r *taskRepo) ListDueBetween(_ context.Context, from, to time.Time) ([]tasks.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]tasks.Task, 0)
	for _, t := range r.s.tasks {
		if t.DueDate == nil || t.Status == tasks.StatusCompleted {
			continue
		}
		due := *t.DueDate
		if !due.Before(from) && due.Before(to) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(*out[j].DueDate) })
	return out, nil
}
