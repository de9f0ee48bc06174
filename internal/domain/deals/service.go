package deals

import (
	"context"
	"fmt"
	"strconv"
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
	Value       float64
	Stage       string
	Description string
	ContactID   string
	OwnerID     string // vacío = el propio actor
}

func (s *Service) Create(ctx context.Context, actor visibility.Actor, in CreateInput) (Deal, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Deal{}, audit.ErrInvalidInput
	}
	if in.Value < 0 {
		return Deal{}, fmt.Errorf("%w: value must be >= 0", audit.ErrInvalidInput)
	}

	ownerID := strings.TrimSpace(in.OwnerID)
	if ownerID == "" {
		ownerID = actor.ID
	}
	if ownerID != actor.ID {
		ownerTeam, _ := s.teams.TeamOf(ctx, ownerID)
		if !visibility.CanMutate(actor, ownerID, ownerTeam) {
			return Deal{}, audit.ErrForbidden
		}
	}

	stage := strings.TrimSpace(in.Stage)
	if stage == "" {
		stage = DefaultStage
	}

	now := s.now()
	d := Deal{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Value:       in.Value,
		Stage:       stage,
		Description: strings.TrimSpace(in.Description),
		ContactID:   strings.TrimSpace(in.ContactID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return Deal{}, err
	}

	if s.feed != nil {
		_, _ = s.feed.Log(ctx, audit.KindDeal, d.ID, actor.ID, activities.TypeCreate, "Created deal: "+d.Title)
	}
	if s.notif != nil && ownerID != actor.ID {
		_, _ = s.notif.Notify(ctx, ownerID, notifications.TypeAssignment, "New deal assigned: "+d.Title)
	}

	s.pub.Publish(ctx, realtime.Event{Name: realtime.EventDealCreated, Payload: d})
	return d, nil
}

func (s *Service) Get(ctx context.Context, actor visibility.Actor, id string) (Deal, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Deal{}, err
	}
	if err := s.authorizeView(ctx, actor, d.OwnerID); err != nil {
		return Deal{}, err
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, actor visibility.Actor, f ListFilter) ([]Deal, error) {
	return s.repo.List(ctx, visibility.ScopeFor(actor), f)
}

func (s *Service) Update(ctx context.Context, actor visibility.Actor, id string, patch []audit.Field) (Deal, []audit.ChangeRecord, error) {
	runner := audit.Runner[Deal]{
		Kind:     audit.KindDeal,
		Now:      s.now,
		Teams:    s.teams,
		Load:     s.repo.GetByID,
		OwnerOf:  func(d Deal) string { return d.OwnerID },
		Snapshot: Deal.snapshot,
		Apply:    applyPatch,
		Persist:  s.repo.Update,
		Publish: func(ctx context.Context, d Deal, _ []audit.ChangeRecord) {
			s.pub.Publish(ctx, realtime.Event{Name: realtime.EventDealUpdated, Payload: d})
		},
	}

	updated, recs, err := runner.Run(ctx, actor, id, patch)
	if err != nil {
		return Deal{}, nil, err
	}

	if len(recs) > 0 && s.feed != nil {
		detail := "Updated deal: " + updated.Title
		if updated.closed() && stageChanged(recs) {
			detail = "Closed deal (" + updated.Stage + "): " + updated.Title
		}
		_, _ = s.feed.Log(ctx, audit.KindDeal, updated.ID, actor.ID, activities.TypeUpdate, detail)
	}
	return updated, recs, nil
}

func (s *Service) Delete(ctx context.Context, actor visibility.Actor, id string) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ownerTeam := ""
	if s.teams != nil {
		ownerTeam, _ = s.teams.TeamOf(ctx, d.OwnerID)
	}
	if !visibility.CanMutate(actor, d.OwnerID, ownerTeam) {
		return audit.ErrForbidden
	}

	terminal := audit.Stamp([]audit.Change{{
		Field:    "deleted",
		OldValue: audit.NullableString(d.Title),
		NewValue: audit.StringPtr("deal deleted"),
	}}, audit.KindDeal, d.ID, actor.ID, s.now())[0]

	if err := s.repo.Delete(ctx, d.ID, terminal); err != nil {
		return err
	}

	if s.feed != nil {
		_, _ = s.feed.Log(ctx, audit.KindDeal, d.ID, actor.ID, activities.TypeDelete, "Deleted deal: "+d.Title)
	}
	s.pub.Publish(ctx, realtime.Event{
		Name:    realtime.EventDealDeleted,
		Payload: map[string]string{"id": d.ID},
	})
	return nil
}

// StatsFor agrega métricas de deals ya filtradas por el alcance del actor.
func (s *Service) StatsFor(ctx context.Context, actor visibility.Actor) (Stats, error) {
	return s.repo.StatsFor(ctx, visibility.ScopeFor(actor))
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

func applyPatch(d Deal, patch []audit.Field) (Deal, error) {
	for _, f := range patch {
		switch f.Name {
		case "title":
			if f.Value == nil {
				return Deal{}, fmt.Errorf("%w: title is required", audit.ErrInvalidInput)
			}
			d.Title = *f.Value
		case "value":
			if f.Value == nil {
				d.Value = 0
				continue
			}
			v, err := strconv.ParseFloat(*f.Value, 64)
			if err != nil || v < 0 {
				return Deal{}, fmt.Errorf("%w: value must be a number >= 0", audit.ErrInvalidInput)
			}
			d.Value = v
		case "stage":
			if f.Value == nil {
				return Deal{}, fmt.Errorf("%w: stage is required", audit.ErrInvalidInput)
			}
			d.Stage = *f.Value
		case "description":
			d.Description = deref(f.Value)
		case "contact_id":
			d.ContactID = deref(f.Value)
		}
	}
	d.UpdatedAt = time.Now()
	return d, nil
}

func stageChanged(recs []audit.ChangeRecord) bool {
	for _, rec := range recs {
		if rec.Field == "stage" {
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
