package memory

import (
	"context"
	"time"

	"crm-backend/internal/domain/identity"
	"crm-backend/internal/domain/visibility"
)

func seedUser(store *Store, id string, role visibility.Role, teamID string) {
	_ = store.Users().Create(context.Background(), identity.User{
		ID:        id,
		Name:      id,
		Email:     id + "@test.local",
		Role:      role,
		TeamID:    teamID,
		CreatedAt: time.Now(),
	})
}
