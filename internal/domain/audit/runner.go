package audit

import (
	"context"
	"errors"
	"time"

	"crm-backend/internal/domain/visibility"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// Runner es el pipeline compartido de mutación auditada. Antes cada
// controller repetía a mano load -> authorize -> diff -> persist -> emit;
// acá se parametriza una sola vez por tipo de entidad.
type Runner[E any] struct {
	Kind EntityKind
	Now  func() time.Time

	// Teams resuelve el equipo del dueño para la regla de managers.
	Teams visibility.TeamDirectory

	Load    func(ctx context.Context, id string) (E, error)
	OwnerOf func(E) string

	// Snapshot proyecta la entidad a sus campos auditables canónicos.
	Snapshot func(E) map[string]*string

	// Apply aplica el patch y devuelve la entidad actualizada.
	// Valida reglas de negocio (campos requeridos, enums, fechas).
	Apply func(E, []Field) (E, error)

	// Persist guarda entidad + historial como unidad atómica.
	// Si falla el historial, no debe quedar visible el update.
	Persist func(ctx context.Context, e E, recs []ChangeRecord) error

	// Publish corre post-commit, fire-and-forget. Puede ser nil.
	Publish func(ctx context.Context, e E, recs []ChangeRecord)
}

// Run ejecuta la mutación completa. Estados terminales: commit (entidad
// actualizada + historial escrito) o abort (error, sin escrituras parciales).
//
// Un diff vacío es éxito: devuelve la entidad tal cual, sin persistir ni
// publicar nada.
func (r Runner[E]) Run(ctx context.Context, actor visibility.Actor, entityID string, patch []Field) (E, []ChangeRecord, error) {
	var zero E

	current, err := r.Load(ctx, entityID)
	if err != nil {
		return zero, nil, err
	}

	ownerID := r.OwnerOf(current)
	if actor.Role != visibility.RoleAdmin && actor.ID != ownerID {
		ownerTeam := ""
		if r.Teams != nil {
			ownerTeam, _ = r.Teams.TeamOf(ctx, ownerID)
		}
		if !visibility.CanMutate(actor, ownerID, ownerTeam) {
			return zero, nil, ErrForbidden
		}
	}

	changes := ComputeDiff(r.Snapshot(current), patch)
	if len(changes) == 0 {
		return current, nil, nil
	}

	updated, err := r.Apply(current, patch)
	if err != nil {
		return zero, nil, err
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	recs := Stamp(changes, r.Kind, entityID, actor.ID, now())

	if err := r.Persist(ctx, updated, recs); err != nil {
		return zero, nil, err
	}

	if r.Publish != nil {
		r.Publish(ctx, updated, recs)
	}
	return updated, recs, nil
}
