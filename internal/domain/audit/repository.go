package audit

import (
	"context"

	"crm-backend/internal/domain/visibility"
)

// HistoryRepository es el lado de lectura/limpieza del historial.
// El append NO está acá: los repos de entidades escriben entidad + historial
// en la misma transacción (ver adapters/storage), que es el invariante
// crítico del sistema.
type HistoryRepository interface {
	ListByEntity(ctx context.Context, kind EntityKind, entityID string) ([]ChangeRecord, error)
	// ListRecent devuelve los últimos cambios acotados por scope sobre
	// changedBy (para los rollups de analytics).
	ListRecent(ctx context.Context, scope visibility.Scope, limit int) ([]ChangeRecord, error)
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
}
