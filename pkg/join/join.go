// Package join implements the streaming merge-join algorithms that consume
// two Tables' ordered key streams and push result rows to a sink as they are
// computed. Nothing here materializes a result list.
package join

import (
	"fmt"
	"time"

	"github.com/bobboyms/joinstore/pkg/ordtree"
	"github.com/bobboyms/joinstore/pkg/table"
)

// Sink receives one formatted result row at a time, in ascending key order.
type Sink func(row string)

// All three operations take l's read lock before r's. Callers must always
// present the two tables in the same fixed order (the registry's "A" before
// "B") so that concurrent joins never acquire the pair in opposite order —
// that's what makes the two-lock acquisition deadlock-free here, rather than
// needing a try-and-back-off loop.

// Intersection emits "key,lvalue,rvalue" for every key present in both L and
// R, advancing whichever iterator has the smaller key and emitting+advancing
// both on a match. Both tables' read locks are held for the duration of the
// merge and released before return; a best-effort drain is attempted on each
// afterward.
func Intersection(l, r *table.Table, sink Sink) {
	lc := l.RLock()
	rc := r.RLock()
	defer func() {
		l.RUnlock()
		r.RUnlock()
	}()

	for lc.Valid() && rc.Valid() {
		switch {
		case lc.Key() < rc.Key():
			lc.Next()
		case rc.Key() < lc.Key():
			rc.Next()
		default:
			sink(fmt.Sprintf("%d,%s,%s", lc.Key(), lc.Value(), rc.Value()))
			lc.Next()
			rc.Next()
		}
	}
}

// SymmetricDifference emits "key,lvalue," for keys only in L, "key,,rvalue"
// for keys only in R, and nothing for keys in both. Locking and drain
// discipline matches Intersection.
func SymmetricDifference(l, r *table.Table, sink Sink) {
	lc := l.RLock()
	rc := r.RLock()
	defer func() {
		l.RUnlock()
		r.RUnlock()
	}()

	mergeSymmetricDifference(lc, rc, sink)
}

// PausedSymmetricDifference behaves exactly like SymmetricDifference, except
// it sleeps for the given duration while holding both read locks before
// merging. It exists purely as a test hook for exercising the scan-isolation
// properties a real client would otherwise need a slow network to trigger.
func PausedSymmetricDifference(l, r *table.Table, sink Sink, pause time.Duration) {
	lc := l.RLock()
	rc := r.RLock()
	defer func() {
		l.RUnlock()
		r.RUnlock()
	}()

	time.Sleep(pause)
	mergeSymmetricDifference(lc, rc, sink)
}

func mergeSymmetricDifference(lc, rc *ordtree.Cursor, sink Sink) {
	for lc.Valid() && rc.Valid() {
		switch {
		case lc.Key() < rc.Key():
			sink(fmt.Sprintf("%d,%s,", lc.Key(), lc.Value()))
			lc.Next()
		case rc.Key() < lc.Key():
			sink(fmt.Sprintf("%d,,%s", rc.Key(), rc.Value()))
			rc.Next()
		default:
			lc.Next()
			rc.Next()
		}
	}
	for lc.Valid() {
		sink(fmt.Sprintf("%d,%s,", lc.Key(), lc.Value()))
		lc.Next()
	}
	for rc.Valid() {
		sink(fmt.Sprintf("%d,,%s", rc.Key(), rc.Value()))
		rc.Next()
	}
}
