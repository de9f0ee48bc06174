package audit

import "time"

// EntityKind identifica el tipo de entidad auditada.
// @Enum lead, contact, deal, task
type EntityKind string

const (
	KindLead    EntityKind = "lead"
	KindContact EntityKind = "contact"
	KindDeal    EntityKind = "deal"
	KindTask    EntityKind = "task"
)

// ChangeRecord es una fila del historial: un campo cambiado en una mutación.
// Inmutable una vez escrita; solo se elimina vía limpieza explícita.
//
// Old/New son punteros: nil representa ausencia de valor (NULL en SQL).
// El string literal "null" nunca se persiste.
type ChangeRecord struct {
	ID         string
	EntityKind EntityKind
	EntityID   string
	ChangedBy  string
	Field      string
	OldValue   *string
	NewValue   *string
	Timestamp  time.Time
}

// Change es el resultado del diff antes de estamparlo como ChangeRecord.
type Change struct {
	Field    string
	OldValue *string
	NewValue *string
}

// Field es un campo entrante de un patch, en el orden del JSON recibido.
type Field struct {
	Name  string
	Value *string
}
