package contacts

import (
	"time"

	"crm-backend/internal/domain/audit"
)

// Contact es una persona/empresa con la que ya hay relación (a diferencia
// del lead, que es prospecto).
type Contact struct {
	ID      string
	OwnerID string

	Name     string
	Email    string
	Phone    string
	Company  string
	Position string
	Notes    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

var auditableFields = []string{"name", "email", "phone", "company", "position", "notes"}

func (c Contact) snapshot() map[string]*string {
	return map[string]*string{
		"name":     audit.NullableString(c.Name),
		"email":    audit.NullableString(c.Email),
		"phone":    audit.NullableString(c.Phone),
		"company":  audit.NullableString(c.Company),
		"position": audit.NullableString(c.Position),
		"notes":    audit.NullableString(c.Notes),
	}
}

func AuditableFields() []string { return auditableFields }
