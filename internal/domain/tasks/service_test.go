package tasks

import (
	"context"
	"testing"
	"time"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/notifications"
	"crm-backend/internal/domain/visibility"
)

type fakeTaskRepo struct {
	tasks map[string]Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]Task)}
}

func (r *fakeTaskRepo) Create(_ context.Context, t Task) error {
	r.tasks[t.ID] = t
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id string) (Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, audit.ErrNotFound
	}
	return t, nil
}

func (r *fakeTaskRepo) List(_ context.Context, _ visibility.Scope, _ ListFilter) ([]Task, error) {
	out := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, t Task, _ []audit.ChangeRecord) error {
	r.tasks[t.ID] = t
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id string, _ audit.ChangeRecord) error {
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) CountPending(_ context.Context, _ visibility.Scope) (int, error) {
	n := 0
	for _, t := range r.tasks {
		if t.Status != StatusCompleted {
			n++
		}
	}
	return n, nil
}

func (r *fakeTaskRepo) ListDueBetween(_ context.Context, from, to time.Time) ([]Task, error) {
	out := make([]Task, 0)
	for _, t := range r.tasks {
		if t.Status == StatusCompleted || t.DueDate == nil {
			continue
		}
		if !t.DueDate.Before(from) && t.DueDate.Before(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeNotifRepo struct {
	created []notifications.Notification
}

func (r *fakeNotifRepo) Create(_ context.Context, n notifications.Notification) error {
	r.created = append(r.created, n)
	return nil
}

func (r *fakeNotifRepo) ListByUser(_ context.Context, _ string, _ bool) ([]notifications.Notification, error) {
	return nil, nil
}

func (r *fakeNotifRepo) MarkRead(_ context.Context, _, _ string) (notifications.Notification, error) {
	return notifications.Notification{}, audit.ErrNotFound
}

func (r *fakeNotifRepo) MarkAllRead(_ context.Context, _ string) (int, error) { return 0, nil }

func (r *fakeNotifRepo) Delete(_ context.Context, _, _ string) error { return nil }

func TestSweepDueNotifiesOwners(t *testing.T) {
	repo := newFakeTaskRepo()
	notifRepo := &fakeNotifRepo{}
	svc := NewService(repo, nil, notifications.NewService(notifRepo, nil), nil, nil)

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	due := func(d time.Duration) *time.Time {
		ts := base.Add(d)
		return &ts
	}
	repo.tasks["soon"] = Task{ID: "soon", OwnerID: "u1", Title: "Llamar cliente", Status: StatusPending, DueDate: due(2 * time.Hour)}
	repo.tasks["edge"] = Task{ID: "edge", OwnerID: "u2", Title: "Enviar propuesta", Status: StatusInProgress, DueDate: due(23 * time.Hour)}
	repo.tasks["far"] = Task{ID: "far", OwnerID: "u1", Title: "Seguimiento", Status: StatusPending, DueDate: due(48 * time.Hour)}
	repo.tasks["done"] = Task{ID: "done", OwnerID: "u1", Title: "Cerrada", Status: StatusCompleted, DueDate: due(time.Hour)}
	repo.tasks["open"] = Task{ID: "open", OwnerID: "u2", Title: "Sin fecha", Status: StatusPending}

	sent, err := svc.SweepDue(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("SweepDue: %v", err)
	}
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	if len(notifRepo.created) != 2 {
		t.Fatalf("notifications = %d, want 2", len(notifRepo.created))
	}
	for _, n := range notifRepo.created {
		if n.Type != notifications.TypeTaskDue {
			t.Fatalf("type = %q, want %q", n.Type, notifications.TypeTaskDue)
		}
	}
}

func TestSweepDueWithoutNotifier(t *testing.T) {
	svc := NewService(newFakeTaskRepo(), nil, nil, nil, nil)
	sent, err := svc.SweepDue(context.Background(), time.Hour)
	if err != nil || sent != 0 {
		t.Fatalf("sent = %d, err = %v, want 0, nil", sent, err)
	}
}

func TestApplyPatchValidatesEnums(t *testing.T) {
	base := Task{Title: "t", Status: StatusPending, Priority: PriorityMedium}

	bad := "blocked"
	if _, err := applyPatch(base, []audit.Field{{Name: "status", Value: &bad}}); err == nil {
		t.Fatal("unknown status accepted")
	}
	if _, err := applyPatch(base, []audit.Field{{Name: "priority", Value: &bad}}); err == nil {
		t.Fatal("unknown priority accepted")
	}

	// due_date null limpia el vencimiento
	ts := time.Now()
	base.DueDate = &ts
	got, err := applyPatch(base, []audit.Field{{Name: "due_date", Value: nil}})
	if err != nil {
		t.Fatalf("clear due_date: %v", err)
	}
	if got.DueDate != nil {
		t.Fatal("due_date not cleared")
	}
}
