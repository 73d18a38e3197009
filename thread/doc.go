// Package thread exposes OS-thread lifecycle primitives.
//
// Every thread forked here is a goroutine locked to its own OS thread for its
// whole lifetime; the OS thread exits together with the goroutine. Threads can
// be pinned to a logical CPU (best effort), named, yielded and killed. Killing
// is forced and asynchronous: the victim stops at its next cancellation point
// (Yield, Sleep, TestCancel) and cleanup inside it is not guaranteed.
package thread
