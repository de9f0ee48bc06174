// Package memory implementa los repositorios sobre mapas en proceso.
// Es el backend de arranque sin DB_DSN y el que usan los tests de router:
// misma semántica que postgres, incluida la atomicidad entidad+historial
// (acá, bajo un único lock).
package memory

import (
	"sync"

	"crm-backend/internal/domain/activities"
	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/contacts"
	"crm-backend/internal/domain/deals"
	"crm-backend/internal/domain/identity"
	"crm-backend/internal/domain/leads"
	"crm-backend/internal/domain/notifications"
	"crm-backend/internal/domain/systemlog"
	"crm-backend/internal/domain/tasks"
)

type Store struct {
	mu sync.RWMutex

	users        map[string]identity.User
	emailIndex   map[string]string // email -> user id
	refreshByTok map[string]identity.RefreshToken

	leads    map[string]leads.Lead
	contacts map[string]contacts.Contact
	deals    map[string]deals.Deal
	tasks    map[string]tasks.Task

	history []audit.ChangeRecord
	feed    []activities.Activity
	notifs  map[string]notifications.Notification
	events  []systemlog.Event
}

func New() *Store {
	return &Store{
		users:        make(map[string]identity.User),
		emailIndex:   make(map[string]string),
		refreshByTok: make(map[string]identity.RefreshToken),
		leads:        make(map[string]leads.Lead),
		contacts:     make(map[string]contacts.Contact),
		deals:        make(map[string]deals.Deal),
		tasks:        make(map[string]tasks.Task),
		notifs:       make(map[string]notifications.Notification),
	}
}

func (s *Store) Users() identity.Repository              { return &userRepo{s} }
func (s *Store) Leads() leads.Repository                 { return &leadRepo{s} }
func (s *Store) Contacts() contacts.Repository           { return &contactRepo{s} }
func (s *Store) Deals() deals.Repository                 { return &dealRepo{s} }
func (s *Store) Tasks() tasks.Repository                 { return &taskRepo{s} }
func (s *Store) History() audit.HistoryRepository        { return &historyRepo{s} }
func (s *Store) Activities() activities.Repository       { return &activityRepo{s} }
func (s *Store) Notifications() notifications.Repository { return &notificationRepo{s} }
func (s *Store) SystemLog() systemlog.Repository         { return &systemlogRepo{s} }

// teamOfLocked resuelve el equipo del dueño para el filtrado por scope.
// Requiere al menos read-lock tomado.
func (s *Store) teamOfLocked(userID string) string {
	if u, ok := s.users[userID]; ok {
		return u.TeamID
	}
	return ""
}

// validRecords chequea lo que en postgres haría fallar el INSERT del
// historial: ids vacíos o registros de otra entidad. Si falla, el caller
// no debe aplicar la mutación (es la mitad "atómica" del contrato).
func validRecords(entityID string, recs []audit.ChangeRecord) bool {
	for _, rec := range recs {
		if rec.ID == "" || rec.EntityID != entityID || rec.Field == "" {
			return false
		}
	}
	return true
}
