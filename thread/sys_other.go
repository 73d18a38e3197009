//go:build !linux

package thread

import "errors"

// Without a kernel thread id there is no way to find the calling thread's
// handle, so Self returns nil and cancellation points only apply through the
// thread context.
func currentTID() int { return -1 }

// setAffinity is a no-op: the affinity request is a hint.
func setAffinity(int) error { return nil }

func setName(string) error { return errors.ErrUnsupported }
