// Package table implements the Ordered Key-Value Table: a single table's
// primary store, its deferred-insert buffer, and the two-tier locking
// discipline that lets inserts proceed while a long-running scan holds the
// table for reading.
package table

import (
	"sync"

	"github.com/bobboyms/joinstore/pkg/dberrors"
	"github.com/bobboyms/joinstore/pkg/ordtree"
)

// Table is a set of (key, value) rows, conceptually ordered ascending by
// key. Physically it is two ordered stores: primary, the committed,
// scan-visible contents, and deferred, rows accepted while a scan held
// primary for reading and not yet drained into it.
//
// primaryRW guards primary; deferredMu guards deferred. The global lock
// order when both are held is primaryRW before deferredMu, and it must
// never be reversed.
type Table struct {
	primaryRW sync.RWMutex
	primary   *ordtree.Tree

	deferredMu sync.Mutex
	deferred   *ordtree.Tree
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		primary:  ordtree.New(),
		deferred: ordtree.New(),
	}
}

// Insert adds (key, value) to the table. It returns dberrors.DuplicateError
// (via dberrors.NewDuplicate) if key already exists in primary or deferred
// at the moment the insert is committed. It never blocks indefinitely on a
// reader: if primary is busy, the row is buffered in deferred instead.
//
// The algorithm is the three-phase protocol this package exists to
// implement:
//
//  1. Fast path: try to take primaryRW exclusively without waiting. If that
//     succeeds, check deferred for the key (a buffered row may not have
//     been drained yet) and, if it is absent, insert directly into primary.
//  2. Deferred path (fast path lost the race with a reader): take primaryRW
//     shared, then deferredMu, in that order. Check both primary and
//     deferred for the key; if neither has it, buffer the row in deferred.
//  3. Opportunistic drain: after a successful deferred insert, attempt
//     tryDrain. This closes the race where the last reader released
//     primaryRW between this goroutine's duplicate check and its deferred
//     insert — that reader would only have drained what it saw at release
//     time, so the writer must give draining another chance itself.
func (t *Table) Insert(key uint64, value string) error {
	if t.primaryRW.TryLock() {
		t.deferredMu.Lock()
		_, pending := t.deferred.Get(key)
		t.deferredMu.Unlock()
		inserted := !pending && t.primary.Insert(key, value)
		t.primaryRW.Unlock()
		if !inserted {
			return dberrors.NewDuplicate(key)
		}
		return nil
	}

	if err := t.deferInsert(key, value); err != nil {
		return err
	}

	t.tryDrain()
	return nil
}

func (t *Table) deferInsert(key uint64, value string) error {
	t.primaryRW.RLock()
	defer t.primaryRW.RUnlock()

	t.deferredMu.Lock()
	defer t.deferredMu.Unlock()

	if _, exists := t.primary.Get(key); exists {
		return dberrors.NewDuplicate(key)
	}
	if !t.deferred.Insert(key, value) {
		return dberrors.NewDuplicate(key)
	}
	return nil
}

// tryDrain moves every row out of deferred into primary, in ascending
// order, and empties deferred. It takes primaryRW exclusively without
// waiting; if some reader still holds it, tryDrain gives up immediately and
// reports false — that reader (or the next writer through Insert) will get
// another chance. Duplicates are impossible here: deferInsert already
// checked primary under a shared lock before buffering.
func (t *Table) tryDrain() (drained bool) {
	if !t.primaryRW.TryLock() {
		return false
	}
	defer t.primaryRW.Unlock()

	t.deferredMu.Lock()
	defer t.deferredMu.Unlock()

	for c := t.deferred.Cursor(); c.Valid(); c.Next() {
		t.primary.Insert(c.Key(), c.Value())
	}
	t.deferred = ordtree.New()
	return true
}

// RLock takes primary's read lock and returns an ascending cursor over its
// contents. It is exposed directly (rather than wrapped in a callback)
// because the join engine must hold two tables' read locks simultaneously
// for the duration of a merge, which a single-table callback can't express.
// Every RLock must be paired with exactly one RUnlock. A scan never
// observes deferred — that's the point of the buffer.
func (t *Table) RLock() *ordtree.Cursor {
	t.primaryRW.RLock()
	return t.primary.Cursor()
}

// RUnlock releases the shared lock taken by RLock and attempts a drain —
// matching Insert's opportunistic drain from the other side: a writer
// may have buffered a row while this read held the lock and found tryDrain
// unavailable; on exit, the read gives that writer's buffered row a chance
// to publish.
func (t *Table) RUnlock() {
	t.primaryRW.RUnlock()
	t.tryDrain()
}

// Len returns a best-effort row count of the committed, visible contents.
// It does not account for buffered deferred rows and is intended for
// metrics, not correctness-sensitive code.
func (t *Table) Len() int {
	t.primaryRW.RLock()
	defer t.primaryRW.RUnlock()
	return t.primary.Len()
}
