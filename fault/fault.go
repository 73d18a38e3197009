package fault

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Domain tags every Error produced by this package.
const Domain = "fault.bridge"

// ErrFault matches any *Error via errors.Is.
var ErrFault = errors.New("fault")

// Error is a fault intercepted by Catch or Try.
type Error struct {
	Description string
	Domain      string
	// Value is the raw value the goroutine panicked with.
	Value any
	// Stack is the goroutine stack captured where the fault was recovered.
	Stack []byte

	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Domain, e.Description)
}

// Unwrap returns the error the fault was raised with, if any.
func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool { return target == ErrFault }

// Raise triggers a fault carrying description. It never returns.
func Raise(description string) {
	e := &Error{Description: description, Domain: Domain}
	e.Value = e
	panic(e)
}

// RaiseError raises a fault whose cause is err. A nil err is ignored.
func RaiseError(err error) {
	if err == nil {
		return
	}
	e := &Error{Description: err.Error(), Domain: Domain, cause: err}
	e.Value = e
	panic(e)
}

// Must returns v, or raises err when it is non-nil.
func Must[T any](v T, err error) T {
	if err != nil {
		RaiseError(err)
	}
	return v
}

// FromPanic converts a recovered panic value into an *Error. Called from a
// deferred recover, the stack it records includes the faulting frames.
func FromPanic(v any) *Error {
	var e *Error
	switch x := v.(type) {
	case *Error:
		if x.Stack != nil {
			return x
		}
		c := *x
		e = &c
	case error:
		e = &Error{Description: x.Error(), Domain: Domain, Value: v, cause: x}
	default:
		e = &Error{Description: fmt.Sprint(v), Domain: Domain, Value: v}
	}
	e.Stack = debug.Stack()
	return e
}

// Catch runs work once on the calling goroutine. If work faults, it is
// abandoned at the fault point and onError is called exactly once with the
// fault after the work's frames have unwound. runtime.Goexit is not caught.
func Catch(work func(), onError func(*Error)) {
	if work == nil {
		return
	}
	if caught := run(work); caught != nil && onError != nil {
		onError(caught)
	}
}

// Try runs work and returns the fault it raised, or nil.
func Try(work func()) error {
	if work == nil {
		return nil
	}
	if caught := run(work); caught != nil {
		return caught
	}
	return nil
}

// CatchValue is Catch for work that produces a value. On a fault the
// handler's result is returned; a nil handler yields the zero value.
func CatchValue[T any](work func() T, handler func(*Error) T) T {
	var v T
	if work == nil {
		return v
	}
	if caught := run(func() { v = work() }); caught != nil {
		if handler == nil {
			var zero T
			return zero
		}
		return handler(caught)
	}
	return v
}

// OnFault runs cleanup only when work faults, then raises the same fault again.
func OnFault(work func(), cleanup func()) {
	if work == nil {
		return
	}
	if caught := run(work); caught != nil {
		if cleanup != nil {
			cleanup()
		}
		panic(caught)
	}
}

// Bracket acquires a resource, passes it to use and always releases it, also
// when use ends through runtime.Goexit. A fault raised by use is raised again
// after release has run.
func Bracket[A, C any](acquire func() A, release func(A), use func(A) C) C {
	a := acquire()
	if release != nil {
		defer release(a)
	}
	var c C
	if caught := run(func() { c = use(a) }); caught != nil {
		panic(caught)
	}
	return c
}

// Finally runs work and then always runs then, whether work completed,
// faulted or ended through runtime.Goexit. A fault from work is raised again
// after then has run.
func Finally(work func(), then func()) {
	if then != nil {
		defer then()
	}
	if work == nil {
		return
	}
	if caught := run(work); caught != nil {
		panic(caught)
	}
}

func run(work func()) (caught *Error) {
	defer func() {
		if r := recover(); r != nil {
			caught = FromPanic(r)
		}
	}()
	work()
	return nil
}
