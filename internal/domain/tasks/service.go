package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm-backend/internal/domain/activities"
	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/notifications"
	"crm-backend/internal/domain/visibility"
	"crm-backend/internal/ports/realtime"
)

type Service struct {
	repo  Repository
	feed  *activities.Service
	notif *notifications.Service
	teams visibility.TeamDirectory
	pub   realtime.Publisher
	now   func() time.Time
}

func NewService(repo Repository, feed *activities.Service, notif *notifications.Service, teams visibility.TeamDirectory, pub realtime.Publisher) *Service {
	if pub == nil {
		pub = realtime.Noop{}
	}
	return &Service{
		repo:  repo,
		feed:  feed,
		notif: notif,
		teams: teams,
		pub:   pub,
		now:   time.Now,
	}
}

type CreateInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     string // RFC3339, vacío = sin vencimiento
	ContactID   string
	DealID      string
	OwnerID     string // vacío = el propio actor
}

func (s *Service) Create(ctx context.Context, actor visibility.Actor, in CreateInput) (Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, audit.ErrInvalidInput
	}

	ownerID := strings.TrimSpace(in.OwnerID)
	if ownerID == "" {
		ownerID = actor.ID
	}
	if ownerID != actor.ID {
		ownerTeam, _ := s.teams.TeamOf(ctx, ownerID)
		if !visibility.CanMutate(actor, ownerID, ownerTeam) {
			return Task{}, audit.ErrForbidden
		}
	}

	priority := strings.TrimSpace(in.Priority)
	if priority == "" {
		priority = PriorityMedium
	}

	var due *time.Time
	if d := strings.TrimSpace(in.DueDate); d != "" {
		parsed, err := time.Parse(time.RFC3339, d)
		if err != nil {
			return Task{}, fmt.Errorf("%w: due_date must be RFC3339", audit.ErrInvalidInput)
		}
		due = &parsed
	}

	now := s.now()
	t := Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      StatusPending,
		Priority:    priority,
		DueDate:     due,
		ContactID:   strings.TrimSpace(in.ContactID),
		DealID:      strings.TrimSpace(in.DealID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return Task{}, err
	}

	if s.feed != nil {
		_, _ = s.feed.Log(ctx, audit.KindTask, t.ID, actor.ID, activities.TypeCreate, "Created task: "+t.Title)
	}
	if s.notif != nil && ownerID != actor.ID {
		_, _ = s.notif.Notify(ctx, ownerID, notifications.TypeAssignment, "New task assigned: "+t.Title)
	}

	s.pub.Publish(ctx, realtime.Event{Name: realtime.EventTaskCreated, Payload: t})
	return t, nil
}

func (s *Service) Get(ctx context.Context, actor visibility.Actor, id string) (Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if err := s.authorizeView(ctx, actor, t.OwnerID); err != nil {
		return Task{}, err
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, actor visibility.Actor, f ListFilter) ([]Task, error) {
	return s.repo.List(ctx, visibility.ScopeFor(actor), f)
}

func (s *Service) Update(ctx context.Context, actor visibility.Actor, id string, patch []audit.Field) (Task, []audit.ChangeRecord, error) {
	runner := audit.Runner[Task]{
		Kind:     audit.KindTask,
		Now:      s.now,
		Teams:    s.teams,
		Load:     s.repo.GetByID,
		OwnerOf:  func(t Task) string { return t.OwnerID },
		Snapshot: Task.snapshot,
		Apply:    applyPatch,
		Persist:  s.repo.Update,
		Publish: func(ctx context.Context, t Task, _ []audit.ChangeRecord) {
			s.pub.Publish(ctx, realtime.Event{Name: realtime.EventTaskUpdated, Payload: t})
		},
	}

	updated, recs, err := runner.Run(ctx, actor, id, patch)
	if err != nil {
		return Task{}, nil, err
	}

	if len(recs) > 0 && s.feed != nil {
		detail := "Updated task: " + updated.Title
		if updated.Status == StatusCompleted && fieldChanged(recs, "status") {
			detail = "Completed task: " + updated.Title
		}
		_, _ = s.feed.Log(ctx, audit.KindTask, updated.ID, actor.ID, activities.TypeUpdate, detail)
	}
	return updated, recs, nil
}

func (s *Service) Delete(ctx context.Context, actor visibility.Actor, id string) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ownerTeam := ""
	if s.teams != nil {
		ownerTeam, _ = s.teams.TeamOf(ctx, t.OwnerID)
	}
	if !visibility.CanMutate(actor, t.OwnerID, ownerTeam) {
		return audit.ErrForbidden
	}

	terminal := audit.Stamp([]audit.Change{{
		Field:    "deleted",
		OldValue: audit.NullableString(t.Title),
		NewValue: audit.StringPtr("task deleted"),
	}}, audit.KindTask, t.ID, actor.ID, s.now())[0]

	if err := s.repo.Delete(ctx, t.ID, terminal); err != nil {
		return err
	}

	if s.feed != nil {
		_, _ = s.feed.Log(ctx, audit.KindTask, t.ID, actor.ID, activities.TypeDelete, "Deleted task: "+t.Title)
	}
	s.pub.Publish(ctx, realtime.Event{
		Name:    realtime.EventTaskDeleted,
		Payload: map[string]string{"id": t.ID},
	})
	return nil
}

// SweepDue notifica tareas que vencen dentro de la ventana dada. Lo dispara
// un ticker en main; devuelve cuántos recordatorios se enviaron.
func (s *Service) SweepDue(ctx context.Context, window time.Duration) (int, error) {
	if s.notif == nil {
		return 0, nil
	}
	now := s.now()
	due, err := s.repo.ListDueBetween(ctx, now, now.Add(window))
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, t := range due {
		if _, err := s.notif.Notify(ctx, t.OwnerID, notifications.TypeTaskDue, "Task due soon: "+t.Title); err == nil {
			sent++
		}
	}
	return sent, nil
}

func (s *Service) authorizeView(ctx context.Context, actor visibility.Actor, ownerID string) error {
	if actor.Role == visibility.RoleAdmin || actor.ID == ownerID {
		return nil
	}
	ownerTeam := ""
	if s.teams != nil {
		ownerTeam, _ = s.teams.TeamOf(ctx, ownerID)
	}
	if !visibility.Allows(visibility.ScopeFor(actor), ownerID, ownerTeam) {
		return audit.ErrForbidden
	}
	return nil
}

func applyPatch(t Task, patch []audit.Field) (Task, error) {
	for _, f := range patch {
		switch f.Name {
		case "title":
			if f.Value == nil {
				return Task{}, fmt.Errorf("%w: title is required", audit.ErrInvalidInput)
			}
			t.Title = *f.Value
		case "description":
			t.Description = deref(f.Value)
		case "status":
			if f.Value == nil {
				return Task{}, fmt.Errorf("%w: status is required", audit.ErrInvalidInput)
			}
			switch *f.Value {
			case StatusPending, StatusInProgress, StatusCompleted:
				t.Status = *f.Value
			default:
				return Task{}, fmt.Errorf("%w: unknown status %q", audit.ErrInvalidInput, *f.Value)
			}
		case "priority":
			if f.Value == nil {
				return Task{}, fmt.Errorf("%w: priority is required", audit.ErrInvalidInput)
			}
			switch *f.Value {
			case PriorityLow, PriorityMedium, PriorityHigh:
				t.Priority = *f.Value
			default:
				return Task{}, fmt.Errorf("%w: unknown priority %q", audit.ErrInvalidInput, *f.Value)
			}
		case "due_date":
			if f.Value == nil {
				t.DueDate = nil
				continue
			}
			parsed, err := time.Parse(time.RFC3339, *f.Value)
			if err != nil {
				return Task{}, fmt.Errorf("%w: due_date must be RFC3339", audit.ErrInvalidInput)
			}
			t.DueDate = &parsed
		case "contact_id":
			t.ContactID = deref(f.Value)
		case "deal_id":
			t.DealID = deref(f.Value)
		}
	}
	t.UpdatedAt = time.Now()
	return t, nil
}

func fieldChanged(recs []audit.ChangeRecord, field string) bool {
	for _, rec := range recs {
		if rec.Field == field {
			return true
		}
	}
	return false
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
