package leads

import (
	"time"

	"crm-backend/internal/domain/audit"
)

const DefaultStage = "new"

// Lead es un prospecto con un único dueño. La propiedad nunca se transfiere
// implícitamente; reasignar requiere un patch explícito de un ADMIN.
type Lead struct {
	ID      string
	OwnerID string

	Name  string
	Email string
	Phone string
	Stage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Campos que acepta el PATCH y que quedan en el historial.
var auditableFields = []string{"name", "email", "phone", "stage"}

// snapshot proyecta el lead a sus campos auditables canónicos:
// "" colapsa a nil (mismo convenio que el parser de patches).
func (l Lead) snapshot() map[string]*string {
	return map[string]*string{
		"name":  audit.NullableString(l.Name),
		"email": audit.NullableString(l.Email),
		"phone": audit.NullableString(l.Phone),
		"stage": audit.NullableString(l.Stage),
	}
}
