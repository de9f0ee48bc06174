package notifications

import "context"

type Repository interface {
	Create(ctx context.Context, n Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)
	// MarkRead y Delete exigen que la notificación pertenezca a userID;
	// si no, not found (no filtramos existencia ajena).
	MarkRead(ctx context.Context, id, userID string) (Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id, userID string) error
}
