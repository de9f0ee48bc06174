package deals

import (
	"strconv"
	"time"

	"crm-backend/internal/domain/audit"
)

// Etapas del pipeline. closed_won / closed_lost son terminales y las usa
// el tablero de analítica para ingresos y conversión.
const (
	DefaultStage    = "prospecting"
	StageClosedWon  = "closed_won"
	StageClosedLost = "closed_lost"
)

type Deal struct {
	ID      string
	OwnerID string

	Title       string
	Value       float64
	Stage       string
	Description string
	ContactID   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

var auditableFields = []string{"title", "value", "stage", "description", "contact_id"}

func (d Deal) snapshot() map[string]*string {
	return map[string]*string{
		"title":       audit.NullableString(d.Title),
		"value":       audit.StringPtr(formatValue(d.Value)),
		"stage":       audit.NullableString(d.Stage),
		"description": audit.NullableString(d.Description),
		"contact_id":  audit.NullableString(d.ContactID),
	}
}

// formatValue normaliza el monto para el diff: misma representación
// textual que produce el parser del patch con números JSON.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func AuditableFields() []string { return auditableFields }

func (d Deal) closed() bool {
	return d.Stage == StageClosedWon || d.Stage == StageClosedLost
}
