package systemlog

import "time"

// Acciones registradas en el log de sistema. Es auditoría gruesa por acción,
// no por campo (eso vive en audit.ChangeRecord).
const (
	ActionRegister   = "register"
	ActionLogin      = "login"
	ActionLogout     = "logout"
	ActionRoleUpdate = "role_update"
	ActionCreate     = "create"
	ActionDelete     = "delete"
	ActionSeed       = "seed"
	ActionPurge      = "purge"
)

// Event es una entrada del log de sistema.
type Event struct {
	ID          string
	ActorID     string
	Action      string
	EntityType  string
	EntityID    string
	Description string
	IPAddress   string
	UserAgent   string
	Timestamp   time.Time
}

// ListFilter acota el listado admin. Search matchea case-insensitive contra
// description, action y entity_type (OR lógico).
type ListFilter struct {
	ActorID    string
	Action     string
	EntityType string
	Search     string

	Page     int
	PageSize int
	SortAsc  bool
}

// Page es el resultado paginado.
type Page struct {
	Records    []Event
	Total      int
	Page       int
	TotalPages int
}
