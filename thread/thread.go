package thread

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

const noAffinity = -1

// Thread is a handle to a forked OS thread.
type Thread struct {
	id     uint64
	tid    int
	cpu    int
	ctx    context.Context
	cancel context.CancelCauseFunc
	done   chan struct{}

	// affinityErr is written before the fork returns and never after.
	affinityErr error

	mu   sync.Mutex
	name string
	err  error
}

func newThread(parent context.Context, id uint64, cpu int) *Thread {
	ctx, cancel := context.WithCancelCause(parent)
	return &Thread{id: id, tid: -1, cpu: cpu, ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// ID is a process-unique sequence number assigned at fork.
func (t *Thread) ID() uint64 { return t.id }

// TID is the kernel thread id, or -1 where the platform does not expose one.
func (t *Thread) TID() int { return t.tid }

// CPU is the requested CPU index, or -1 when the thread was not pinned.
func (t *Thread) CPU() int { return t.cpu }

// AffinityErr reports why the affinity hint could not be applied, if it was not.
func (t *Thread) AffinityErr() error { return t.affinityErr }

// Context is cancelled when the thread is killed or finishes.
func (t *Thread) Context() context.Context { return t.ctx }

// Done is closed once the thread has exited.
func (t *Thread) Done() <-chan struct{} { return t.done }

func (t *Thread) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

// Err is the outcome of a finished thread: nil, an ErrKilled cause, or a
// *fault.Error when the spawner converts panics.
func (t *Thread) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the thread has exited and returns Err.
func (t *Thread) Wait() error {
	<-t.done
	return t.Err()
}

func (t *Thread) Alive() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// Kill requests forced termination. It returns immediately; the thread stops
// at its next cancellation point (Yield, Sleep, TestCancel) and its context
// reports ErrKilled. A thread blocked anywhere else, such as a bare channel
// receive, time.Sleep or a syscall, is never terminated unless its work
// watches Context.
func (t *Thread) Kill() error {
	if !t.Alive() {
		return ErrNotAlive
	}
	t.cancel(ErrKilled)
	return nil
}

func (t *Thread) String() string {
	if name := t.Name(); name != "" {
		return fmt.Sprintf("thread#%d(%s tid=%d)", t.id, name, t.tid)
	}
	return fmt.Sprintf("thread#%d(tid=%d)", t.id, t.tid)
}

func (t *Thread) setName(name string) {
	t.mu.Lock()
	t.name = name
	t.mu.Unlock()
}

func (t *Thread) exit(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	close(t.done)
	t.cancel(nil)
}

// checkpoint must only run on t's own goroutine.
func (t *Thread) checkpoint() {
	if t.ctx.Err() != nil {
		runtime.Goexit()
	}
}
