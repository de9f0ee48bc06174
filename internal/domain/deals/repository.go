package deals

import (
	"context"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/visibility"
)

type ListFilter struct {
	Stage string
}

// Stats agrega lo que el tablero necesita en una pasada, ya acotado al
// alcance del actor.
type Stats struct {
	Total       int
	Active      int
	WonRevenue  float64
	Pipeline    float64
	WonCount    int
	ClosedCount int
}

type Repository interface {
	Create(ctx context.Context, d Deal) error
	GetByID(ctx context.Context, id string) (Deal, error)
	List(ctx context.Context, scope visibility.Scope, f ListFilter) ([]Deal, error)
	Update(ctx context.Context, d Deal, recs []audit.ChangeRecord) error
	Delete(ctx context.Context, id string, terminal audit.ChangeRecord) error
	StatsFor(ctx context.Context, scope visibility.Scope) (Stats, error)
}
