package tasks

import (
	"time"

	"crm-backend/internal/domain/audit"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Task struct {
	ID      string
	OwnerID string

	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	ContactID   string
	DealID      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

var auditableFields = []string{"title", "description", "status", "priority", "due_date", "contact_id", "deal_id"}

func (t Task) snapshot() map[string]*string {
	return map[string]*string{
		"title":       audit.NullableString(t.Title),
		"description": audit.NullableString(t.Description),
		"status":      audit.NullableString(t.Status),
		"priority":    audit.NullableString(t.Priority),
		"due_date":    formatDue(t.DueDate),
		"contact_id":  audit.NullableString(t.ContactID),
		"deal_id":     audit.NullableString(t.DealID),
	}
}

// formatDue usa RFC3339 en UTC, la misma forma que acepta el patch, para
// que un round-trip no genere falsos cambios.
func formatDue(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return audit.StringPtr(t.UTC().Format(time.RFC3339))
}

func AuditableFields() []string { return auditableFields }
