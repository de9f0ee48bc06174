package leads

import (
	"context"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/visibility"
)

type ListFilter struct {
	Stage string
}

type Repository interface {
	Create(ctx context.Context, l Lead) error
	GetByID(ctx context.Context, id string) (Lead, error)
	List(ctx context.Context, scope visibility.Scope, f ListFilter) ([]Lead, error)

	// Update escribe el lead y su historial como unidad atómica: si fallan
	// los ChangeRecords no debe quedar visible el update.
	Update(ctx context.Context, l Lead, recs []audit.ChangeRecord) error

	// Delete borra el lead y deja el registro terminal en el historial.
	// El historial previo sobrevive a la entidad.
	Delete(ctx context.Context, id string, terminal audit.ChangeRecord) error

	CountByStage(ctx context.Context, scope visibility.Scope) (map[string]int, error)
	CountByOwner(ctx context.Context, scope visibility.Scope) (map[string]int, error)
}
