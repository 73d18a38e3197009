// Package errgroup mimics golang.org/x/sync/errgroup, except that every
// function runs on its own forked OS thread and a fault raised by it is
// reported as that function's error.
package errgroup

import (
	"context"
	"sync"

	"github.com/NetPo4ki/go-realworld/fault"
	"github.com/NetPo4ki/go-realworld/thread"
)

// Group is an errgroup-like wrapper over thread.Spawner.
type Group struct {
	sp     *thread.Spawner
	ctx    context.Context
	cancel context.CancelCauseFunc

	errOnce sync.Once
	err     error
}

// WithContext creates a Group bound to ctx. Returned context is canceled when
// any function passed to Go returns a non-nil error or faults. Like errgroup,
// cancellation is cooperative: threads are not killed when it fires.
func WithContext(ctx context.Context, opts ...thread.Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	gctx, cancel := context.WithCancelCause(ctx)
	g := &Group{sp: thread.New(opts...), ctx: gctx, cancel: cancel}
	return g, gctx
}

// Go starts f on a new OS thread. A refused fork counts as f's error.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	_, err := g.sp.Fork(func() {
		var ferr error
		if caught := fault.Try(func() { ferr = f() }); caught != nil {
			ferr = caught
		}
		g.record(ferr)
	})
	if err != nil {
		g.record(err)
	}
}

// Wait blocks until all functions have returned and returns the first
// non-nil error.
func (g *Group) Wait() error {
	// A thread killed through the spawner options never reports on its own.
	g.record(g.sp.Wait())
	g.cancel(g.err)
	return g.err
}

func (g *Group) record(err error) {
	if err == nil {
		return
	}
	g.errOnce.Do(func() {
		g.err = err
		g.cancel(err)
	})
}
