package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/leads"
	"crm-backend/internal/domain/visibility"
)

func TestLeadUpdateIsAtomicWithHistory(t *testing.T) {
	store := New()
	repo := store.Leads()
	ctx := context.Background()

	l := leads.Lead{ID: "l1", OwnerID: "u1", Name: "Acme", Stage: "new", CreatedAt: time.Now()}
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// registro inválido (EntityID de otra entidad): nada debe aplicarse
	l.Stage = "contacted"
	bad := audit.ChangeRecord{ID: "r1", EntityKind: audit.KindLead, EntityID: "otro", Field: "stage"}
	if err := repo.Update(ctx, l, []audit.ChangeRecord{bad}); err == nil {
		t.Fatal("Update con registro inválido debería fallar")
	}

	got, _ := repo.GetByID(ctx, "l1")
	if got.Stage != "new" {
		t.Fatalf("el update fallido dejó stage=%q, el rollback no funcionó", got.Stage)
	}
	recs, _ := store.History().ListByEntity(ctx, audit.KindLead, "l1")
	if len(recs) != 0 {
		t.Fatalf("quedaron %d registros de historial tras el fallo", len(recs))
	}

	// el caso feliz escribe entidad + historial juntos
	ok := audit.ChangeRecord{ID: "r2", EntityKind: audit.KindLead, EntityID: "l1", Field: "stage",
		OldValue: audit.StringPtr("new"), NewValue: audit.StringPtr("contacted"), Timestamp: time.Now()}
	if err := repo.Update(ctx, l, []audit.ChangeRecord{ok}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = repo.GetByID(ctx, "l1")
	if got.Stage != "contacted" {
		t.Fatalf("stage = %q, quiero contacted", got.Stage)
	}
	recs, _ = store.History().ListByEntity(ctx, audit.KindLead, "l1")
	if len(recs) != 1 || recs[0].Field != "stage" {
		t.Fatalf("historial = %+v, quiero exactamente el cambio de stage", recs)
	}
}

func TestLeadDeleteKeepsHistory(t *testing.T) {
	store := New()
	repo := store.Leads()
	ctx := context.Background()

	l := leads.Lead{ID: "l1", OwnerID: "u1", Name: "Acme", Stage: "new"}
	_ = repo.Create(ctx, l)

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	prev := audit.ChangeRecord{ID: "r1", EntityKind: audit.KindLead, EntityID: "l1", Field: "stage",
		NewValue: audit.StringPtr("contacted"), Timestamp: base}
	l.Stage = "contacted"
	_ = repo.Update(ctx, l, []audit.ChangeRecord{prev})

	terminal := audit.ChangeRecord{ID: "r2", EntityKind: audit.KindLead, EntityID: "l1", Field: "deleted",
		OldValue: audit.StringPtr("Acme"), NewValue: audit.StringPtr("lead deleted"), Timestamp: base.Add(time.Minute)}
	if err := repo.Delete(ctx, "l1", terminal); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := repo.GetByID(ctx, "l1"); !errors.Is(err, audit.ErrNotFound) {
		t.Fatalf("GetByID tras delete = %v, quiero ErrNotFound", err)
	}

	// más reciente primero: el terminal encabeza el historial
	recs, _ := store.History().ListByEntity(ctx, audit.KindLead, "l1")
	if len(recs) != 2 {
		t.Fatalf("el historial tiene %d registros, quiero 2 (previo + terminal)", len(recs))
	}
	if recs[0].Field != "deleted" {
		t.Fatalf("el primer registro es %q, quiero el terminal", recs[0].Field)
	}
}

func TestLeadListScoping(t *testing.T) {
	store := New()
	ctx := context.Background()

	// el scope de equipo resuelve el team del dueño vía el store de usuarios
	seedUser(store, "sales-a", visibility.RoleSales, "team-1")
	seedUser(store, "sales-b", visibility.RoleSales, "team-2")

	_ = store.Leads().Create(ctx, leads.Lead{ID: "la", OwnerID: "sales-a", Name: "A", Stage: "new"})
	_ = store.Leads().Create(ctx, leads.Lead{ID: "lb", OwnerID: "sales-b", Name: "B", Stage: "new"})

	mgr := visibility.Actor{ID: "mgr", Role: visibility.RoleManager, TeamID: "team-1"}
	got, err := store.Leads().List(ctx, visibility.ScopeFor(mgr), leads.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "la" {
		t.Fatalf("manager de team-1 ve %d leads, quiero solo el de su equipo", len(got))
	}

	admin := visibility.Actor{ID: "root", Role: visibility.RoleAdmin}
	got, _ = store.Leads().List(ctx, visibility.ScopeFor(admin), leads.ListFilter{})
	if len(got) != 2 {
		t.Fatalf("admin ve %d leads, quiero 2", len(got))
	}
}
