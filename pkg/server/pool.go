package server

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool runs command bodies on a bounded set of goroutines, shared across
// every session on the server. Submitting blocks only if the pool is already
// at its concurrency limit — it never spawns unbounded goroutines under
// load.
type Pool struct {
	g      *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool returns a Pool sized to limit, or to runtime.GOMAXPROCS(0) if
// limit <= 0.
func NewPool(limit int) *Pool {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	return &Pool{g: g, ctx: ctx, cancel: cancel}
}

// Submit runs fn on the pool, blocking the caller until a slot is free to
// accept the work (not until fn completes).
func (p *Pool) Submit(fn func()) {
	p.g.Go(func() error {
		fn()
		return nil
	})
}

// Close cancels the pool's context and waits for everything already
// submitted to finish. Submit does not consult that context, so work
// submitted after Close still runs.
func (p *Pool) Close() {
	p.cancel()
	_ = p.g.Wait()
}
