package audit

import (
	"context"
	"strings"

	"crm-backend/internal/domain/visibility"
)

// Service expone la lectura y limpieza del historial de cambios.
type Service struct {
	repo HistoryRepository
}

func NewService(repo HistoryRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListByEntity(ctx context.Context, kind EntityKind, entityID string) ([]ChangeRecord, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" || kind == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByEntity(ctx, kind, entityID)
}

func (s *Service) ListRecent(ctx context.Context, actor visibility.Actor, limit int) ([]ChangeRecord, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repo.ListRecent(ctx, visibility.ScopeFor(actor), limit)
}

// DeleteByIDs borra filas puntuales del historial. Solo ADMIN: el historial
// es append-only para el resto del sistema.
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
