package contacts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm-backend/internal/domain/activities"
	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/visibility"
	"crm-backend/internal/ports/realtime"
)

type Service struct {
	repo  Repository
	feed  *activities.Service
	teams visibility.TeamDirectory
	pub   realtime.Publisher
	now   func() time.Time
}

func NewService(repo Repository, feed *activities.Service, teams visibility.TeamDirectory, pub realtime.Publisher) *Service {
	if pub == nil {
		pub = realtime.Noop{}
	}
	return &Service{
		repo:  repo,
		feed:  feed,
		teams: teams,
		pub:   pub,
		now:   time.Now,
	}
}

type CreateInput struct {
	Name     string
	Email    string
	Phone    string
	Company  string
	Position string
	Notes    string
}

func (s *Service) Create(ctx context.Context, actor visibility.Actor, in CreateInput) (Contact, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Contact{}, audit.ErrInvalidInput
	}

	now := s.now()
	c := Contact{
		ID:        uuid.NewString(),
		OwnerID:   actor.ID,
		Name:      name,
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Company:   strings.TrimSpace(in.Company),
		Position:  strings.TrimSpace(in.Position),
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Contact{}, err
	}

	if s.feed != nil {
		_, _ = s.feed.Log(ctx, audit.KindContact, c.ID, actor.ID, activities.TypeCreate, "Created contact: "+c.Name)
	}
	s.pub.Publish(ctx, realtime.Event{Name: realtime.EventContactCreated, Payload: c})
	return c, nil
}

func (s *Service) Get(ctx context.Context, actor visibility.Actor, id string) (Contact, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Contact{}, err
	}
	if !s.canView(ctx, actor, c.OwnerID) {
		return Contact{}, audit.ErrForbidden
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, actor visibility.Actor) ([]Contact, error) {
	return s.repo.List(ctx, visibility.ScopeFor(actor))
}

func (s *Service) Update(ctx context.Context, actor visibility.Actor, id string, patch []audit.Field) (Contact, []audit.ChangeRecord, error) {
	runner := audit.Runner[Contact]{
		Kind:     audit.KindContact,
		Now:      s.now,
		Teams:    s.teams,
		Load:     s.repo.GetByID,
		OwnerOf:  func(c Contact) string { return c.OwnerID },
		Snapshot: Contact.snapshot,
		Apply:    applyPatch,
		Persist:  s.repo.Update,
		Publish: func(ctx context.Context, c Contact, _ []audit.ChangeRecord) {
			s.pub.Publish(ctx, realtime.Event{Name: realtime.EventContactUpdated, Payload: c})
		},
	}

	updated, recs, err := runner.Run(ctx, actor, id, patch)
	if err != nil {
		return Contact{}, nil, err
	}
	if len(recs) > 0 && s.feed != nil {
		_, _ = s.feed.Log(ctx, audit.KindContact, updated.ID, actor.ID, activities.TypeUpdate, "Updated contact: "+updated.Name)
	}
	return updated, recs, nil
}

func (s *Service) Delete(ctx context.Context, actor visibility.Actor, id string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ownerTeam := ""
	if s.teams != nil {
		ownerTeam, _ = s.teams.TeamOf(ctx, c.OwnerID)
	}
	if !visibility.CanMutate(actor, c.OwnerID, ownerTeam) {
		return audit.ErrForbidden
	}

	terminal := audit.Stamp([]audit.Change{{
		Field:    "deleted",
		OldValue: audit.NullableString(c.Name),
		NewValue: audit.StringPtr("contact deleted"),
	}}, audit.KindContact, c.ID, actor.ID, s.now())[0]

	if err := s.repo.Delete(ctx, c.ID, terminal); err != nil {
		return err
	}

	if s.feed != nil {
		_, _ = s.feed.Log(ctx, audit.KindContact, c.ID, actor.ID, activities.TypeDelete, "Deleted contact: "+c.Name)
	}
	s.pub.Publish(ctx, realtime.Event{
		Name:    realtime.EventContactDeleted,
		Payload: map[string]string{"id": c.ID},
	})
	return nil
}

func (s *Service) canView(ctx context.Context, actor visibility.Actor, ownerID string) bool {
	if actor.Role == visibility.RoleAdmin || actor.ID == ownerID {
		return true
	}
	ownerTeam := ""
	if s.teams != nil {
		ownerTeam, _ = s.teams.TeamOf(ctx, ownerID)
	}
	return visibility.Allows(visibility.ScopeFor(actor), ownerID, ownerTeam)
}

func applyPatch(c Contact, patch []audit.Field) (Contact, error) {
	for _, f := range patch {
		switch f.Name {
		case "name":
			if f.Value == nil {
				return Contact{}, fmt.Errorf("%w: name is required", audit.ErrInvalidInput)
			}
			c.Name = *f.Value
		case "email":
			c.Email = deref(f.Value)
		case "phone":
			c.Phone = deref(f.Value)
		case "company":
			c.Company = deref(f.Value)
		case "position":
			c.Position = deref(f.Value)
		case "notes":
			c.Notes = deref(f.Value)
		}
	}
	c.UpdatedAt = time.Now()
	return c, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
