package table_test

import (
	"sync"
	"testing"
	"time"

	"github.com/bobboyms/joinstore/pkg/dberrors"
	"github.com/bobboyms/joinstore/pkg/table"
)

func drainAll(tb *table.Table) []string {
	var out []string
	c := tb.RLock()
	for c.Valid() {
		out = append(out, c.Value())
		c.Next()
	}
	tb.RUnlock()
	return out
}

func TestInsertAndScanAscending(t *testing.T) {
	tb := table.New()
	if err := tb.Insert(3, "violation"); err != nil {
		t.Fatalf("Insert(3): %v", err)
	}
	if err := tb.Insert(1, "sweater"); err != nil {
		t.Fatalf("Insert(1): %v", err)
	}
	if err := tb.Insert(2, "frank"); err != nil {
		t.Fatalf("Insert(2): %v", err)
	}

	got := drainAll(tb)
	want := []string{"sweater", "frank", "violation"}
	if len(got) != len(want) {
		t.Fatalf("scan = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scan = %v, want %v", got, want)
		}
	}
}

func TestInsertDuplicate(t *testing.T) {
	tb := table.New()
	if err := tb.Insert(0, "lean"); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err := tb.Insert(0, "sweat")
	if err == nil {
		t.Fatalf("expected duplicate error, got nil")
	}
	if !dberrors.IsDuplicate(err) {
		t.Fatalf("expected a DuplicateError, got %T: %v", err, err)
	}
}

func TestInsertDuringScanIsDeferredThenDrained(t *testing.T) {
	tb := table.New()
	if err := tb.Insert(0, "lean"); err != nil {
		t.Fatalf("Insert(0): %v", err)
	}
	if err := tb.Insert(1, "sweater"); err != nil {
		t.Fatalf("Insert(1): %v", err)
	}

	cur := tb.RLock() // hold the read lock open across the insert below

	insertDone := make(chan error, 1)
	go func() {
		insertDone <- tb.Insert(2, "frank")
	}()

	// Give the writer a chance to actually reach the deferred path.
	time.Sleep(20 * time.Millisecond)

	var scanned []string
	for cur.Valid() {
		scanned = append(scanned, cur.Value())
		cur.Next()
	}
	tb.RUnlock()

	if err := <-insertDone; err != nil {
		t.Fatalf("concurrent insert failed: %v", err)
	}

	if len(scanned) != 2 {
		t.Fatalf("in-flight scan observed %v, want exactly the pre-existing 2 rows", scanned)
	}

	// A later scan must see the drained row.
	got := drainAll(tb)
	if len(got) != 3 {
		t.Fatalf("post-insert scan = %v, want 3 rows", got)
	}
}

func TestConcurrentDuplicateInsertExactlyOneWins(t *testing.T) {
	tb := table.New()

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = tb.Insert(42, "race")
		}(i)
	}
	wg.Wait()

	oks, dups := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			oks++
		case dberrors.IsDuplicate(err):
			dups++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if oks != 1 {
		t.Fatalf("oks = %d, want exactly 1", oks)
	}
	if dups != len(results)-1 {
		t.Fatalf("dups = %d, want %d", dups, len(results)-1)
	}
}
