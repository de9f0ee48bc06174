package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm-backend/internal/domain/visibility"
)

type fakeEntity struct {
	ID      string
	OwnerID string
	Stage   string
}

type fakeTeams map[string]string

func (f fakeTeams) TeamOf(_ context.Context, userID string) (string, error) {
	return f[userID], nil
}

func newRunner(store map[string]fakeEntity, teams fakeTeams, persistErr error, persisted *[]ChangeRecord) Runner[fakeEntity] {
	return Runner[fakeEntity]{
		Kind:  KindLead,
		Now:   func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) },
		Teams: teams,
		Load: func(_ context.Context, id string) (fakeEntity, error) {
			e, ok := store[id]
			if !ok {
				return fakeEntity{}, ErrNotFound
			}
			return e, nil
		},
		OwnerOf: func(e fakeEntity) string { return e.OwnerID },
		Snapshot: func(e fakeEntity) map[string]*string {
			return map[string]*string{"stage": sp(e.Stage)}
		},
		Apply: func(e fakeEntity, patch []Field) (fakeEntity, error) {
			for _, f := range patch {
				if f.Name == "stage" {
					if f.Value == nil {
						return fakeEntity{}, ErrInvalidInput
					}
					e.Stage = *f.Value
				}
			}
			return e, nil
		},
		Persist: func(_ context.Context, e fakeEntity, recs []ChangeRecord) error {
			if persistErr != nil {
				return persistErr
			}
			store[e.ID] = e
			*persisted = append(*persisted, recs...)
			return nil
		},
	}
}

func TestRunner_CommitsEntityAndHistory(t *testing.T) {
	store := map[string]fakeEntity{"7": {ID: "7", OwnerID: "1", Stage: "Prospecting"}}
	var persisted []ChangeRecord
	r := newRunner(store, fakeTeams{}, nil, &persisted)

	alice := visibility.Actor{ID: "1", Role: visibility.RoleSales}
	updated, recs, err := r.Run(context.Background(), alice, "7", []Field{{Name: "stage", Value: sp("Qualified")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Stage != "Qualified" || store["7"].Stage != "Qualified" {
		t.Fatalf("entity not updated: %+v", updated)
	}
	if len(recs) != 1 || len(persisted) != 1 {
		t.Fatalf("expected exactly one change record, got %d/%d", len(recs), len(persisted))
	}
	rec := recs[0]
	if rec.Field != "stage" || *rec.OldValue != "Prospecting" || *rec.NewValue != "Qualified" || rec.ChangedBy != "1" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestRunner_EmptyDiffIsSuccessWithoutWrites(t *testing.T) {
	store := map[string]fakeEntity{"7": {ID: "7", OwnerID: "1", Stage: "new"}}
	var persisted []ChangeRecord
	r := newRunner(store, fakeTeams{}, errors.New("persist must not be called"), &persisted)

	got, recs, err := r.Run(context.Background(), visibility.Actor{ID: "1", Role: visibility.RoleSales},
		"7", []Field{{Name: "stage", Value: sp("new")}})
	if err != nil {
		t.Fatalf("empty diff should succeed: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
	if got.Stage != "new" {
		t.Fatalf("entity should be returned untouched: %+v", got)
	}
}

func TestRunner_NotFound(t *testing.T) {
	var persisted []ChangeRecord
	r := newRunner(map[string]fakeEntity{}, fakeTeams{}, nil, &persisted)

	_, _, err := r.Run(context.Background(), visibility.Actor{ID: "1", Role: visibility.RoleAdmin},
		"missing", []Field{{Name: "stage", Value: sp("x")}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunner_ForbiddenForStranger(t *testing.T) {
	store := map[string]fakeEntity{"7": {ID: "7", OwnerID: "1", Stage: "new"}}
	var persisted []ChangeRecord
	r := newRunner(store, fakeTeams{"1": "T1"}, nil, &persisted)

	bob := visibility.Actor{ID: "2", Role: visibility.RoleSales}
	if _, _, err := r.Run(context.Background(), bob, "7", []Field{{Name: "stage", Value: sp("x")}}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if store["7"].Stage != "new" {
		t.Fatal("entity mutated on forbidden request")
	}
}

func TestRunner_ManagerSameTeamAllowed(t *testing.T) {
	store := map[string]fakeEntity{"7": {ID: "7", OwnerID: "1", Stage: "new"}}
	var persisted []ChangeRecord
	r := newRunner(store, fakeTeams{"1": "T1"}, nil, &persisted)

	carol := visibility.Actor{ID: "9", Role: visibility.RoleManager, TeamID: "T1"}
	if _, _, err := r.Run(context.Background(), carol, "7", []Field{{Name: "stage", Value: sp("won")}}); err != nil {
		t.Fatalf("same-team manager should mutate: %v", err)
	}

	dave := visibility.Actor{ID: "8", Role: visibility.RoleManager, TeamID: "T2"}
	if _, _, err := r.Run(context.Background(), dave, "7", []Field{{Name: "stage", Value: sp("lost")}}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-team manager should be forbidden, got %v", err)
	}
}

func TestRunner_PersistFailureAborts(t *testing.T) {
	store := map[string]fakeEntity{"7": {ID: "7", OwnerID: "1", Stage: "new"}}
	var persisted []ChangeRecord
	boom := errors.New("storage down")
	r := newRunner(store, fakeTeams{}, boom, &persisted)

	_, _, err := r.Run(context.Background(), visibility.Actor{ID: "1", Role: visibility.RoleSales},
		"7", []Field{{Name: "stage", Value: sp("Qualified")}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected storage error to propagate, got %v", err)
	}
	if store["7"].Stage != "new" || len(persisted) != 0 {
		t.Fatal("partial write observed after failed persist")
	}
}
