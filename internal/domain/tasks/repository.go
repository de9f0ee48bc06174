package tasks

import (
	"context"
	"time"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/visibility"
)

type ListFilter struct {
	Status   string
	Priority string
}

type Repository interface {
	Create(ctx context.Context, t Task) error
	GetByID(ctx context.Context, id string) (Task, error)
	List(ctx context.Context, scope visibility.Scope, f ListFilter) ([]Task, error)
	Update(ctx context.Context, t Task, recs []audit.ChangeRecord) error
	Delete(ctx context.Context, id string, terminal audit.ChangeRecord) error
	CountPending(ctx context.Context, scope visibility.Scope) (int, error)
	// ListDueBetween trae tareas no completadas con vencimiento en [from, to),
	// sin filtro de alcance: lo usa el barrido de recordatorios.
	ListDueBetween(ctx context.Context, from, to time.Time) ([]Task, error)
}
