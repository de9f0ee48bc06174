package contacts

import (
	"context"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/visibility"
)

type Repository interface {
	Create(ctx context.Context, c Contact) error
	GetByID(ctx context.Context, id string) (Contact, error)
	List(ctx context.Context, scope visibility.Scope) ([]Contact, error)
	Update(ctx context.Context, c Contact, recs []audit.ChangeRecord) error
	Delete(ctx context.Context, id string, terminal audit.ChangeRecord) error
	Count(ctx context.Context, scope visibility.Scope) (int, error)
}
