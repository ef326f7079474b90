// Package ordtree implements an ordered, uint64-keyed B+Tree storing string
// values, with leaves chained left-to-right for ascending iteration.
//
// It is adapted from a general-purpose multi-index B+Tree: the key type is
// narrowed from a generic Comparable to a concrete uint64 (every row key in
// the join server is a primary key, never a secondary/non-unique index key),
// and the leaf payload is narrowed from a heap-page pointer to the row value
// itself, since there is no on-disk heap for a volatile in-memory table to
// point into. Deletion and rebalancing are not implemented: a Table never
// deletes an individual row, only replaces itself wholesale on TRUNCATE.
//
// A Tree is not safe for concurrent insert and iteration on its own; the
// per-node latches here only serialize concurrent top-down insert descents
// against each other. Callers (pkg/table) are expected to hold their own
// coarser lock for the duration of any operation that must not race with an
// insert — the node latches are a second, finer-grained layer underneath
// that lock, not a replacement for it.
package ordtree

import "sort"

const defaultDegree = 32

// Tree is an ordered uint64 -> string store.
type Tree struct {
	t    int
	root *node
}

// New returns an empty Tree with a reasonable default branching factor.
func New() *Tree {
	return &Tree{t: defaultDegree, root: newNode(defaultDegree, true)}
}

// Len reports the number of keys currently stored. It is O(n); callers on a
// hot path should avoid it.
func (tr *Tree) Len() int {
	n := 0
	c := tr.Cursor()
	for c.Valid() {
		n++
		c.Next()
	}
	return n
}

// Insert adds key/value to the tree using preventive top-down splitting with
// latch crabbing: a full node is split on the way down so the insert never
// has to climb back up, and a node's lock is released as soon as its child
// is locked, so concurrent inserts down disjoint subtrees don't serialize
// on an ancestor. Returns false without modifying the tree if key is
// already present.
func (tr *Tree) Insert(key uint64, value string) (inserted bool) {
	root := tr.root
	root.mu.Lock()

	if root.isFull() {
		// Grow in place so tr.root is never reassigned: move root's entries
		// into a new child, then split that child.
		child := newNode(tr.t, root.leaf)
		child.keys = append(child.keys, root.keys...)
		child.values = append(child.values, root.values...)
		child.children = append(child.children, root.children...)
		child.n = root.n
		root.keys, root.values, root.n, root.leaf = root.keys[:0], root.values[:0], 0, false
		root.children = append(root.children[:0], child)
		root.splitChild(0)
	}

	return tr.insertTopDown(root, key, value)
}

// insertTopDown walks from curr (already locked) to the leaf that must
// receive key, splitting full children preemptively. Curr's lock is always
// released before returning, whether by being handed off to a child during
// descent or by the trailing defer on the final leaf.
func (tr *Tree) insertTopDown(curr *node, key uint64, value string) bool {
	defer func() {
		if curr != nil {
			curr.mu.Unlock()
		}
	}()

	for !curr.leaf {
		i := 0
		for i < curr.n && key >= curr.keys[i] {
			i++
		}

		child := curr.children[i]
		child.mu.Lock()

		if child.isFull() {
			curr.splitChild(i)
			if key >= curr.keys[i] {
				child.mu.Unlock()
				child = curr.children[i+1]
				child.mu.Lock()
			}
		}

		curr.mu.Unlock()
		curr = child
	}

	return curr.insertLeaf(key, value)
}

// Get returns the value stored for key and whether it was present.
func (tr *Tree) Get(key uint64) (string, bool) {
	cur := tr.root
	cur.mu.RLock()
	for !cur.leaf {
		i := 0
		for i < cur.n && key >= cur.keys[i] {
			i++
		}
		child := cur.children[i]
		child.mu.RLock()
		cur.mu.RUnlock()
		cur = child
	}
	defer cur.mu.RUnlock()

	idx := sort.Search(cur.n, func(i int) bool { return cur.keys[i] >= key })
	if idx < cur.n && cur.keys[idx] == key {
		return cur.values[idx], true
	}
	return "", false
}

// Cursor returns an ascending iterator positioned at the smallest key.
func (tr *Tree) Cursor() *Cursor {
	leaf := tr.root.leftmostLeaf()
	return &Cursor{leaf: leaf, idx: 0}
}

// Cursor walks a Tree's entries in ascending key order via the leaf linked
// list, so a scan never re-descends from the root between keys.
type Cursor struct {
	leaf *node
	idx  int
}

// Valid reports whether the cursor is positioned on an entry.
func (c *Cursor) Valid() bool {
	for c.leaf != nil && c.idx >= c.leaf.n {
		c.leaf = c.leaf.next
		c.idx = 0
	}
	return c.leaf != nil
}

// Key returns the current entry's key. Valid must be true.
func (c *Cursor) Key() uint64 {
	return c.leaf.keys[c.idx]
}

// Value returns the current entry's value. Valid must be true.
func (c *Cursor) Value() string {
	return c.leaf.values[c.idx]
}

// Next advances the cursor by one entry.
func (c *Cursor) Next() {
	c.idx++
}
