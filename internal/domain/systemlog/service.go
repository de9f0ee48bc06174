package systemlog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/visibility"
)

// Misma taxonomía que el resto de los dominios para que el mapeo HTTP
// sea uno solo.
var (
	ErrInvalidInput = audit.ErrInvalidInput
	ErrForbidden    = audit.ErrForbidden
)

const (
	DefaultRetentionDays = 90
	defaultPageSize      = 20
	maxPageSize          = 100
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Entry es lo que aportan los llamadores; id y timestamp se asignan acá.
type Entry struct {
	ActorID     string
	Action      string
	EntityType  string
	EntityID    string
	Description string
	IPAddress   string
	UserAgent   string
}

// Record agrega una entrada al log. A diferencia del historial de campos,
// esto NO participa de la transacción de la mutación: un fallo acá no
// revierte la operación de negocio.
func (s *Service) Record(ctx context.Context, in Entry) error {
	if strings.TrimSpace(in.Action) == "" {
		return ErrInvalidInput
	}
	return s.repo.Append(ctx, Event{
		ID:          uuid.NewString(),
		ActorID:     strings.TrimSpace(in.ActorID),
		Action:      strings.TrimSpace(in.Action),
		EntityType:  strings.TrimSpace(in.EntityType),
		EntityID:    strings.TrimSpace(in.EntityID),
		Description: strings.TrimSpace(in.Description),
		IPAddress:   strings.TrimSpace(in.IPAddress),
		UserAgent:   strings.TrimSpace(in.UserAgent),
		Timestamp:   s.now(),
	})
}

// List es el log global: solo ADMIN.
func (s *Service) List(ctx context.Context, actor visibility.Actor, f ListFilter) (Page, error) {
	if actor.Role != visibility.RoleAdmin {
		return Page{}, ErrForbidden
	}

	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	return s.repo.List(ctx, f)
}

func (s *Service) DeleteByIDs(ctx context.Context, actor visibility.Actor, ids []string) (int, error) {
	if actor.Role != visibility.RoleAdmin {
		return 0, ErrForbidden
	}

	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			clean = append(clean, id)
		}
	}
	if len(clean) == 0 {
		return 0, ErrInvalidInput
	}
	return s.repo.DeleteByIDs(ctx, clean)
}

func (s *Service) DeleteAll(ctx context.Context, actor visibility.Actor) error {
	if actor.Role != visibility.RoleAdmin {
		return ErrForbidden
	}
	return s.repo.DeleteAll(ctx)
}

// Cleanup borra eventos más viejos que retentionDays (default 90) y deja
// constancia de la purga en el propio log.
func (s *Service) Cleanup(ctx context.Context, actor visibility.Actor, retentionDays int) (int, error) {
	if actor.Role != visibility.RoleAdmin {
		return 0, ErrForbidden
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	// best-effort: si esto falla, la purga ya ocurrió igual
	_ = s.Record(ctx, Entry{
		ActorID:     actor.ID,
		Action:      ActionPurge,
		EntityType:  "system_event",
		Description: "retention cleanup",
	})
	return n, nil
}
