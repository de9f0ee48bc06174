package notifications

import "time"

// Tipos de notificación.
const (
	TypeAssignment = "ASSIGNMENT"
	TypeTaskDue    = "TASK_DUE"
	TypeSystem     = "SYSTEM"
)

// Notification pertenece a exactamente un destinatario; solo él la marca
// leída o la borra.
type Notification struct {
	ID        string
	UserID    string
	Type      string
	Message   string
	Read      bool
	CreatedAt time.Time
}
