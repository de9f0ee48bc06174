package realtime

import "context"

// Nombres de evento del dominio. El payload es la entidad post-mutación
// (o su id en los deletes).
const (
	EventLeadCreated     = "lead:created"
	EventLeadUpdated     = "lead:updated"
	EventLeadDeleted     = "lead:deleted"
	EventContactCreated  = "contact:created"
	EventContactUpdated  = "contact:updated"
	EventContactDeleted  = "contact:deleted"
	EventDealCreated     = "deal:created"
	EventDealUpdated     = "deal:updated"
	EventDealDeleted     = "deal:deleted"
	EventTaskCreated     = "task:created"
	EventTaskUpdated     = "task:updated"
	EventTaskDeleted     = "task:deleted"
	EventNotificationNew = "notification:new"
)

// Event es lo que se publica tras un commit exitoso.
// Room vacío = broadcast a todos los suscriptores.
type Event struct {
	Name    string `json:"event"`
	Room    string `json:"-"`
	Payload any    `json:"payload"`
}

// UserRoom y RoleRoom nombran los rooms igual que el resto del sistema.
func UserRoom(userID string) string { return "user_" + userID }
func RoleRoom(role string) string   { return "role_" + role }

// Publisher desacopla el transporte (websocket, webhook, lo que sea) de la
// lógica de mutación. Fire-and-forget, at-most-once: los consumidores lo
// tratan como hint de invalidación, nunca como fuente de verdad.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Noop sirve para tests y para arrancar sin transporte configurado.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}

// Fanout publica en varios transportes a la vez.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(ctx, ev)
		}
	}
}
