package audit

import (
	"strings"
	"testing"
	"time"
)

func sp(s string) *string { return &s }

func TestComputeDiff_NoChangesNoRecords(t *testing.T) {
	existing := map[string]*string{
		"name":  sp("Acme"),
		"stage": sp("new"),
		"phone": nil,
	}
	incoming := []Field{
		{Name: "name", Value: sp("Acme")},
		{Name: "stage", Value: sp("new")},
		{Name: "phone", Value: nil},
	}

	if got := ComputeDiff(existing, incoming); len(got) != 0 {
		t.Fatalf("expected empty diff, got %v", got)
	}
}

func TestComputeDiff_SingleFieldChange(t *testing.T) {
	existing := map[string]*string{
		"name":  sp("Acme"),
		"stage": sp("Prospecting"),
	}
	incoming := []Field{{Name: "stage", Value: sp("Qualified")}}

	got := ComputeDiff(existing, incoming)
	if len(got) != 1 {
		t.Fatalf("expected exactly one change, got %d", len(got))
	}
	c := got[0]
	if c.Field != "stage" || *c.OldValue != "Prospecting" || *c.NewValue != "Qualified" {
		t.Fatalf("unexpected change: %+v", c)
	}
}

func TestComputeDiff_NullTransitions(t *testing.T) {
	existing := map[string]*string{
		"phone": nil,
		"email": sp("a@b.co"),
	}
	incoming := []Field{
		{Name: "phone", Value: sp("555-1234")}, // nil -> valor
		{Name: "email", Value: nil},            // valor -> nil
	}

	got := ComputeDiff(existing, incoming)
	if len(got) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(got))
	}
	if got[0].OldValue != nil || *got[0].NewValue != "555-1234" {
		t.Fatalf("unexpected phone change: %+v", got[0])
	}
	if *got[1].OldValue != "a@b.co" || got[1].NewValue != nil {
		t.Fatalf("unexpected email change: %+v", got[1])
	}

	// El literal "null" jamás aparece como valor.
	for _, c := range got {
		for _, v := range []*string{c.OldValue, c.NewValue} {
			if v != nil && *v == "null" {
				t.Fatalf("literal \"null\" leaked into %+v", c)
			}
		}
	}
}

func TestComputeDiff_KeyAbsentFromExisting(t *testing.T) {
	got := ComputeDiff(map[string]*string{}, []Field{{Name: "notes", Value: sp("hola")}})
	if len(got) != 1 || got[0].OldValue != nil {
		t.Fatalf("expected nil old value for unknown key, got %+v", got)
	}
}

func TestComputeDiff_PreservesIncomingOrder(t *testing.T) {
	existing := map[string]*string{
		"a": sp("1"),
		"b": sp("2"),
		"c": sp("3"),
	}
	incoming := []Field{
		{Name: "c", Value: sp("30")},
		{Name: "a", Value: sp("10")},
		{Name: "b", Value: sp("20")},
	}

	for i := 0; i < 5; i++ { // el orden debe ser estable entre corridas
		got := ComputeDiff(existing, incoming)
		if len(got) != 3 || got[0].Field != "c" || got[1].Field != "a" || got[2].Field != "b" {
			t.Fatalf("diff order does not follow incoming order: %+v", got)
		}
	}
}

func TestComputeDiff_DoesNotAliasInputs(t *testing.T) {
	old := sp("x")
	got := ComputeDiff(map[string]*string{"f": old}, []Field{{Name: "f", Value: sp("y")}})
	*got[0].OldValue = "mutated"
	if *old != "x" {
		t.Fatal("diff aliased caller memory")
	}
}

func TestStamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := Stamp([]Change{
		{Field: "stage", OldValue: sp("Prospecting"), NewValue: sp("Qualified")},
	}, KindLead, "lead-7", "user-1", at)

	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	r := recs[0]
	if r.ID == "" {
		t.Fatal("record id not assigned")
	}
	if r.EntityKind != KindLead || r.EntityID != "lead-7" || r.ChangedBy != "user-1" {
		t.Fatalf("unexpected record: %+v", r)
	}
	if !r.Timestamp.Equal(at) {
		t.Fatalf("timestamp not stamped: %v", r.Timestamp)
	}
}

func TestParsePatch_OrderAndCoercion(t *testing.T) {
	body := `{"stage":"Qualified","value":5000,"active":true,"phone":null,"notes":""}`
	allowed := []string{"stage", "value", "active", "phone", "notes"}

	fields, err := ParsePatch(strings.NewReader(body), allowed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantNames := []string{"stage", "value", "active", "phone", "notes"}
	if len(fields) != len(wantNames) {
		t.Fatalf("expected %d fields, got %d", len(wantNames), len(fields))
	}
	for i, n := range wantNames {
		if fields[i].Name != n {
			t.Fatalf("field %d: expected %s, got %s", i, n, fields[i].Name)
		}
	}

	if *fields[0].Value != "Qualified" {
		t.Fatalf("stage: %v", fields[0].Value)
	}
	if *fields[1].Value != "5000" {
		t.Fatalf("number should keep its literal: %v", *fields[1].Value)
	}
	if *fields[2].Value != "true" {
		t.Fatalf("bool: %v", *fields[2].Value)
	}
	if fields[3].Value != nil {
		t.Fatalf("null should map to nil, got %v", *fields[3].Value)
	}
	if fields[4].Value != nil {
		t.Fatalf("empty string should canonicalize to nil, got %v", *fields[4].Value)
	}
}

func TestParsePatch_RejectsUnknownField(t *testing.T) {
	_, err := ParsePatch(strings.NewReader(`{"hacker":"yes"}`), []string{"stage"})
	if err == nil || !strings.Contains(err.Error(), "hacker") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestParsePatch_RejectsNestedValues(t *testing.T) {
	_, err := ParsePatch(strings.NewReader(`{"stage":{"deep":1}}`), []string{"stage"})
	if err == nil {
		t.Fatal("expected error for non-scalar value")
	}
}

func TestParsePatch_DuplicateKeyLastWins(t *testing.T) {
	fields, err := ParsePatch(strings.NewReader(`{"stage":"a","stage":"b"}`), []string{"stage"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 1 || *fields[0].Value != "b" {
		t.Fatalf("expected last value to win, got %+v", fields)
	}
}

func TestParsePatch_RejectsNonObject(t *testing.T) {
	for _, body := range []string{`[]`, `"x"`, ``, `{`} {
		if _, err := ParsePatch(strings.NewReader(body), nil); err == nil {
			t.Fatalf("expected error for body %q", body)
		}
	}
}
