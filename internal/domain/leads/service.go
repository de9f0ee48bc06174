package leads

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
	Name    string
	Email   string
	Phone   string
	Stage   string
	OwnerID string // vacío = el propio actor
}

func (s *Service) Create(ctx context.Context, actor visibility.Actor, in CreateInput) (Lead, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Lead{}, audit.ErrInvalidInput
	}

	ownerID := strings.TrimSpace(in.OwnerID)
	if ownerID == "" {
		ownerID = actor.ID
	}
	if ownerID != actor.ID {
		// asignar a otro: ADMIN o manager del equipo del destinatario
		ownerTeam, _ := s.teams.TeamOf(ctx, ownerID)
		if !visibility.CanMutate(actor, ownerID, ownerTeam) {
			return Lead{}, audit.ErrForbidden
		}
	}

	stage := strings.TrimSpace(in.Stage)
	if stage == "" {
		stage = DefaultStage
	}

	now := s.now()
	l := Lead{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Stage:     stage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return Lead{}, err
	}

	// feed y notificación: best-effort, fuera de la transacción
	if s.feed != nil {
		_, _ = s.feed.Log(ctx, audit.KindLead, l.ID, actor.ID, activities.TypeCreate, "Created new lead: "+l.Name)
	}
	if s.notif != nil && ownerID != actor.ID {
		_, _ = s.notif.Notify(ctx, ownerID, notifications.TypeAssignment, "New lead assigned: "+l.Name)
	}

	s.pub.Publish(ctx, realtime.Event{Name: realtime.EventLeadCreated, Payload: l})
	return l, nil
}

func (s *Service) Get(ctx context.Context, actor visibility.Actor, id string) (Lead, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Lead{}, err
	}
	if err := s.authorizeView(ctx, actor, l.OwnerID); err != nil {
		return Lead{}, err
	}
	return l, nil
}

func (s *Service) List(ctx context.Context, actor visibility.Actor, f ListFilter) ([]Lead, error) {
	return s.repo.List(ctx, visibility.ScopeFor(actor), f)
}

// Update corre el pipeline de mutación auditada: un ChangeRecord por campo
// que realmente cambió, entidad + historial en una transacción.
func (s *Service) Update(ctx context.Context, actor visibility.Actor, id string, patch []audit.Field) (Lead, []audit.ChangeRecord, error) {
	runner := audit.Runner[Lead]{
		Kind:     audit.KindLead,
		Now:      s.now,
		Teams:    s.teams,
		Load:     s.repo.GetByID,
		OwnerOf:  func(l Lead) string { return l.OwnerID },
		Snapshot: Lead.snapshot,
		Apply:    applyPatch,
		Persist:  s.repo.Update,
		Publish: func(ctx context.Context, l Lead, _ []audit.ChangeRecord) {
			s.pub.Publish(ctx, realtime.Event{Name: realtime.EventLeadUpdated, Payload: l})
		},
	}

	updated, recs, err := runner.Run(ctx, actor, id, patch)
	if err != nil {
		return Lead{}, nil, err
	}

	if len(recs) > 0 && s.feed != nil {
		_, _ = s.feed.Log(ctx, audit.KindLead, updated.ID, actor.ID, activities.TypeUpdate, "Updated lead: "+updated.Name)
	}
	return updated, recs, nil
}

func (s *Service) Delete(ctx context.Context, actor visibility.Actor, id string) error {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ownerTeam := ""
	if s.teams != nil {
		ownerTeam, _ = s.teams.TeamOf(ctx, l.OwnerID)
	}
	if !visibility.CanMutate(actor, l.OwnerID, ownerTeam) {
		return audit.ErrForbidden
	}

	// registro terminal: el historial sobrevive al lead
	terminal := audit.Stamp([]audit.Change{{
		Field:    "deleted",
		OldValue: audit.NullableString(l.Name),
		NewValue: audit.StringPtr("lead deleted"),
	}}, audit.KindLead, l.ID, actor.ID, s.now())[0]

	if err := s.repo.Delete(ctx, l.ID, terminal); err != nil {
		return err
	}

	if s.feed != nil {
		_, _ = s.feed.Log(ctx, audit.KindLead, l.ID, actor.ID, activities.TypeDelete, "Deleted lead: "+l.Name)
	}
	s.pub.Publish(ctx, realtime.Event{
		Name:    realtime.EventLeadDeleted,
		Payload: map[string]string{"id": l.ID, "message": "Lead deleted: " + l.Name},
	})
	return nil
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

func applyPatch(l Lead, patch []audit.Field) (Lead, error) {
	for _, f := range patch {
		switch f.Name {
		case "name":
			if f.Value == nil {
				return Lead{}, fmt.Errorf("%w: name is required", audit.ErrInvalidInput)
			}
			l.Name = *f.Value
		case "email":
			l.Email = deref(f.Value)
		case "phone":
			l.Phone = deref(f.Value)
		case "stage":
			if f.Value == nil {
				return Lead{}, fmt.Errorf("%w: stage is required", audit.ErrInvalidInput)
			}
			l.Stage = *f.Value
		}
	}
	l.UpdatedAt = time.Now()
	return l, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// AuditableFields expone la lista para el parser del handler.
func AuditableFields() []string { return auditableFields }
