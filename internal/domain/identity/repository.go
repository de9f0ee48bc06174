package identity

import (
	"context"
	"time"

	"crm-backend/internal/domain/visibility"
)

type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, id string, role visibility.Role) error
	Count(ctx context.Context) (int, error)

	SaveRefreshToken(ctx context.Context, t RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (RefreshToken, error)
	RotateRefreshToken(ctx context.Context, id, newToken string, expiresAt time.Time) error
	DeleteRefreshToken(ctx context.Context, token string) error
}
