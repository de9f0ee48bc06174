package identity

import (
	"time"

	"crm-backend/internal/domain/visibility"
)

// User es el actor del sistema: quien ejecuta mutaciones y lecturas.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string

	Role   visibility.Role
	TeamID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor proyecta el usuario a la identidad que usa la política de visibilidad.
func (u User) Actor() visibility.Actor {
	return visibility.Actor{ID: u.ID, Role: u.Role, TeamID: u.TeamID}
}

// RefreshToken persiste el refresh vigente de una sesión. Se rota en cada
// refresh: el token viejo deja de servir.
type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TokenPair es lo que recibe el cliente al autenticarse.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
