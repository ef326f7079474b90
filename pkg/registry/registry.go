// Package registry implements the Table Registry: the fixed {"A", "B"} ->
// Table mapping, with atomic whole-table replacement for TRUNCATE.
package registry

import (
	"sync/atomic"

	"github.com/bobboyms/joinstore/pkg/dberrors"
	"github.com/bobboyms/joinstore/pkg/table"
)

// Names are the registry's two fixed slots, in the order joins must
// acquire them to stay deadlock-free (see pkg/join).
const (
	A = "A"
	B = "B"
)

// Registry holds an atomically swappable Table reference per known name. No
// lock guards lookup or replacement; publication relies entirely on
// atomic.Pointer. A caller that loads a reference keeps operating against
// that Table even after a concurrent Truncate swaps the slot to a fresh one.
type Registry struct {
	a atomic.Pointer[table.Table]
	b atomic.Pointer[table.Table]
}

// New returns a Registry with both slots bound to fresh, empty Tables.
func New() *Registry {
	r := &Registry{}
	r.a.Store(table.New())
	r.b.Store(table.New())
	return r
}

func (r *Registry) slot(name string) *atomic.Pointer[table.Table] {
	switch name {
	case A:
		return &r.a
	case B:
		return &r.b
	default:
		return nil
	}
}

// Get returns the current Table bound to name, or TableNotFound if name is
// not "A" or "B".
func (r *Registry) Get(name string) (*table.Table, error) {
	slot := r.slot(name)
	if slot == nil {
		return nil, dberrors.NewTableNotFound(name)
	}
	return slot.Load(), nil
}

// Truncate atomically replaces name's Table with a fresh empty one. Callers
// that already loaded the old Table (e.g. a join scan in flight) keep
// reading it to completion; it is simply no longer reachable through the
// registry once this returns. Fails with TableNotFound if name is unknown.
func (r *Registry) Truncate(name string) error {
	slot := r.slot(name)
	if slot == nil {
		return dberrors.NewTableNotFound(name)
	}
	slot.Store(table.New())
	return nil
}
