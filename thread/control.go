package thread

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// std backs the package-level fork functions.
var std = New()

// registry maps a kernel thread id to the forked thread running on it.
var registry sync.Map

func register(t *Thread) {
	if t.tid > 0 {
		registry.Store(t.tid, t)
	}
}

func unregister(t *Thread) {
	if t.tid > 0 {
		registry.CompareAndDelete(t.tid, t)
	}
}

func Fork(work func()) (*Thread, error) { return std.Fork(work) }

func ForkContext(work func(ctx context.Context)) (*Thread, error) { return std.ForkContext(work) }

func ForkOnto(cpu int, work func()) (*Thread, error) { return std.ForkOnto(cpu, work) }

func ForkOntoContext(cpu int, work func(ctx context.Context)) (*Thread, error) {
	return std.ForkOntoContext(cpu, work)
}

// Kill forcibly terminates t at its next cancellation point.
func Kill(t *Thread) error {
	if t == nil {
		return ErrNotAlive
	}
	return t.Kill()
}

// Self returns the forked thread the caller runs on, or nil.
func Self() *Thread {
	tid := currentTID()
	if tid <= 0 {
		return nil
	}
	if v, ok := registry.Load(tid); ok {
		return v.(*Thread)
	}
	return nil
}

// Label names the calling thread for debuggers and /proc. The name is
// diagnostic only and replaces any earlier one.
func Label(name string) error {
	t := Self()
	if t == nil {
		return ErrNotForked
	}
	if err := setName(name); err != nil {
		return err
	}
	t.setName(name)
	return nil
}

// Yield gives up the rest of the caller's time slice. It is a cancellation point.
func Yield() {
	runtime.Gosched()
	TestCancel()
}

// TestCancel terminates the calling thread if it has been killed.
func TestCancel() {
	if t := Self(); t != nil {
		t.checkpoint()
	}
}

// Sleep pauses the caller for d. On a forked thread it wakes early and
// terminates when the thread is killed.
func Sleep(d time.Duration) {
	t := Self()
	if t == nil {
		time.Sleep(d)
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-t.ctx.Done():
	}
	t.checkpoint()
}

// CPUCount returns the number of logical CPUs usable by the process.
func CPUCount() int {
	return runtime.NumCPU()
}
