package util

import "testing"

func TestDiffFields(t *testing.T) {
	oldFields := map[string]any{
		"email":  "ana@old.com",
		"nombre": "Ana",
		"rol":    "ANALISTA",
	}
	newFields := map[string]any{
		"email":  "ana@new.com",
		"nombre": "Ana",
		"rol":    "ANALISTA",
	}

	diff := DiffFields(oldFields, newFields)

	if len(diff) != 1 {
		t.Fatalf("expected diff with exactly one field, got %d: %v", len(diff), diff)
	}

	change, ok := diff["email"]
	if !ok {
		t.Fatal("expected email in diff")
	}
	if change.Old != "ana@old.com" || change.New != "ana@new.com" {
		t.Errorf("unexpected change: %+v", change)
	}
}

func TestDiffFieldsAdditionsAndRemovals(t *testing.T) {
	oldFields := map[string]any{"telefono": "555", "email": "a@b.c"}
	newFields := map[string]any{"email": "a@b.c", "direccion": "Calle 1"}

	diff := DiffFields(oldFields, newFields)

	if len(diff) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(diff), diff)
	}

	if removed := diff["telefono"]; removed.Old != "555" || removed.New != nil {
		t.Errorf("removed field not captured: %+v", removed)
	}
	if added := diff["direccion"]; added.Old != nil || added.New != "Calle 1" {
		t.Errorf("added field not captured: %+v", added)
	}
}

func TestDiffFieldsNoChanges(t *testing.T) {
	fields := map[string]any{"email": "a@b.c"}

	if diff := DiffFields(fields, map[string]any{"email": "a@b.c"}); len(diff) != 0 {
		t.Errorf("expected empty diff, got %v", diff)
	}
}
