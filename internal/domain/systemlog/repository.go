package systemlog

import (
	"context"
	"time"
)

type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, f ListFilter) (Page, error)
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
	DeleteAll(ctx context.Context) error
	// DeleteOlderThan borra todo evento con timestamp estrictamente anterior
	// al corte y devuelve cuántos se fueron.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
