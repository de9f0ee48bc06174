package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/visibility"
	"crm-backend/internal/ports/realtime"
)

type Service struct {
	repo Repository
	pub  realtime.Publisher
	now  func() time.Time
}

func NewService(repo Repository, pub realtime.Publisher) *Service {
	if pub == nil {
		pub = realtime.Noop{}
	}
	return &Service{
		repo: repo,
		pub:  pub,
		now:  time.Now,
	}
}

// Notify crea la notificación y la empuja al room del destinatario.
// El push es best-effort: si el socket no está, la fila queda igual.
func (s *Service) Notify(ctx context.Context, userID, typ, message string) (Notification, error) {
	userID = strings.TrimSpace(userID)
	message = strings.TrimSpace(message)
	if userID == "" || message == "" {
		return Notification{}, audit.ErrInvalidInput
	}
	if typ == "" {
		typ = TypeSystem
	}

	n := Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Message:   message,
		Read:      false,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return Notification{}, err
	}

	s.pub.Publish(ctx, realtime.Event{
		Name:    realtime.EventNotificationNew,
		Room:    realtime.UserRoom(userID),
		Payload: n,
	})
	return n, nil
}

func (s *Service) List(ctx context.Context, actor visibility.Actor, unreadOnly bool) ([]Notification, error) {
	return s.repo.ListByUser(ctx, actor.ID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, actor visibility.Actor, id string) (Notification, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Notification{}, audit.ErrInvalidInput
	}
	return s.repo.MarkRead(ctx, id, actor.ID)
}

func (s *Service) MarkAllRead(ctx context.Context, actor visibility.Actor) (int, error) {
	return s.repo.MarkAllRead(ctx, actor.ID)
}

func (s *Service) Delete(ctx context.Context, actor visibility.Actor, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return audit.ErrInvalidInput
	}
	return s.repo.Delete(ctx, id, actor.ID)
}
