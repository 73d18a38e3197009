package thread

import "errors"

var (
	// ErrThreadCreation is returned when a spawner refuses to create a thread.
	ErrThreadCreation = errors.New("thread: creation refused")
	// ErrInvalidAffinity is returned by ForkOnto for a CPU index outside [0, CPUCount()).
	ErrInvalidAffinity = errors.New("thread: invalid cpu index")
	// ErrKilled is the cancellation cause of a killed thread.
	ErrKilled = errors.New("thread: killed")
	// ErrNotAlive is returned when killing a thread that already exited.
	ErrNotAlive = errors.New("thread: not alive")
	// ErrNotForked is returned by Label when the caller is not a forked thread.
	ErrNotForked = errors.New("thread: caller is not a forked thread")
	ErrNilWork   = errors.New("thread: nil work")
)
