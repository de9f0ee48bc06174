package audit

import (
	"time"

	"github.com/google/uuid"
)

// ComputeDiff compara el snapshot actual contra los campos entrantes y
// devuelve un Change por cada campo que realmente cambió.
//
// Contrato de orden: los cambios salen en el orden de `incoming` (orden del
// JSON recibido), no alfabético ni de esquema. Dos diffs sobre la misma
// entrada ordenada emiten la misma secuencia.
//
// Igualdad a nivel de valor: nil == nil; nil vs no-nil siempre difiere;
// el resto compara el string canónico.
func ComputeDiff(existing map[string]*string, incoming []Field) []Change {
	out := make([]Change, 0, len(incoming))

	for _, f := range incoming {
		old := existing[f.Name]
		if equalValue(old, f.Value) {
			continue
		}
		out = append(out, Change{
			Field:    f.Name,
			OldValue: cloneValue(old),
			NewValue: cloneValue(f.Value),
		})
	}
	return out
}

// Stamp convierte los cambios de un diff en ChangeRecords persistibles.
func Stamp(changes []Change, kind EntityKind, entityID, changedBy string, at time.Time) []ChangeRecord {
	recs := make([]ChangeRecord, 0, len(changes))
	for _, c := range changes {
		recs = append(recs, ChangeRecord{
			ID:         uuid.NewString(),
			EntityKind: kind,
			EntityID:   entityID,
			ChangedBy:  changedBy,
			Field:      c.Field,
			OldValue:   c.OldValue,
			NewValue:   c.NewValue,
			Timestamp:  at,
		})
	}
	return recs
}

func equalValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneValue(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

// StringPtr es un helper para snapshots: "" se trata como valor presente,
// solo nil significa NULL.
func StringPtr(s string) *string { return &s }

// NullableString mapea el convenio de los modelos: string vacío => NULL.
// Lo usan los snapshots de campos opcionales (phone, company, notes...).
func NullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
