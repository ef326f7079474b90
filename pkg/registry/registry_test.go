package registry_test

import (
	"testing"

	"github.com/bobboyms/joinstore/pkg/registry"
)

func TestGetUnknownTable(t *testing.T) {
	r := registry.New()
	if _, err := r.Get("C"); err == nil {
		t.Fatalf("expected TableNotFound for unknown table")
	}
}

func TestTruncateUnknownTable(t *testing.T) {
	r := registry.New()
	if err := r.Truncate("C"); err == nil {
		t.Fatalf("expected TableNotFound for unknown table")
	}
}

func TestTruncateReplacesSlotButOldReferenceSurvives(t *testing.T) {
	r := registry.New()

	tblA, err := r.Get(registry.A)
	if err != nil {
		t.Fatalf("Get(A): %v", err)
	}
	if err := tblA.Insert(0, "lean"); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := r.Truncate(registry.A); err != nil {
		t.Fatalf("Truncate(A): %v", err)
	}

	// The reference taken before truncate still has the old row.
	if tblA.Len() != 1 {
		t.Fatalf("stale reference Len() = %d, want 1", tblA.Len())
	}

	// A fresh lookup sees the new, empty table.
	fresh, err := r.Get(registry.A)
	if err != nil {
		t.Fatalf("Get(A) after truncate: %v", err)
	}
	if fresh.Len() != 0 {
		t.Fatalf("fresh Len() = %d, want 0", fresh.Len())
	}
}

func TestTruncateTwiceIsIdempotent(t *testing.T) {
	r := registry.New()
	if err := r.Truncate(registry.B); err != nil {
		t.Fatalf("first truncate: %v", err)
	}
	if err := r.Truncate(registry.B); err != nil {
		t.Fatalf("second truncate: %v", err)
	}
	tbl, _ := r.Get(registry.B)
	if tbl.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tbl.Len())
	}
}

func TestInsertAfterTruncateSucceedsAgain(t *testing.T) {
	r := registry.New()
	tbl, _ := r.Get(registry.A)
	if err := tbl.Insert(7, "lake"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := r.Truncate(registry.A); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	tbl2, _ := r.Get(registry.A)
	if err := tbl2.Insert(7, "lake"); err != nil {
		t.Fatalf("insert after truncate: %v", err)
	}
}
