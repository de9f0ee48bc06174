package activities

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm-backend/internal/domain/audit"
)

// Tipos de actividad del feed.
const (
	TypeCreate = "CREATE"
	TypeUpdate = "UPDATE"
	TypeDelete = "DELETE"
	TypeNote   = "NOTE"
)

// Activity es una entrada del feed de una entidad. A diferencia del
// historial de cambios no es por campo: es narrativa ("Updated lead: Acme").
type Activity struct {
	ID         string           `json:"id"`
	EntityKind audit.EntityKind `json:"entity_kind"`
	EntityID   string           `json:"entity_id"`
	UserID     string           `json:"user_id"`
	Type       string           `json:"type"`
	Details    string           `json:"details"`
	CreatedAt  time.Time        `json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, a Activity) error
	ListByEntity(ctx context.Context, kind audit.EntityKind, entityID string, limit int) ([]Activity, error)
}

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

func (s *Service) Log(ctx context.Context, kind audit.EntityKind, entityID, userID, typ, details string) (Activity, error) {
	if kind == "" || strings.TrimSpace(entityID) == "" || strings.TrimSpace(userID) == "" {
		return Activity{}, audit.ErrInvalidInput
	}
	if typ == "" {
		typ = TypeNote
	}
	details = strings.TrimSpace(details)
	if details == "" {
		return Activity{}, audit.ErrInvalidInput
	}

	a := Activity{
		ID:         uuid.NewString(),
		EntityKind: kind,
		EntityID:   entityID,
		UserID:     userID,
		Type:       typ,
		Details:    details,
		CreatedAt:  s.now(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return Activity{}, err
	}
	return a, nil
}

func (s *Service) ListByEntity(ctx context.Context, kind audit.EntityKind, entityID string, limit int) ([]Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByEntity(ctx, kind, entityID, limit)
}
