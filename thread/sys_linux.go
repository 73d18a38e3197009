//go:build linux

package thread

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// maxNameLen is the kernel's TASK_COMM_LEN minus the terminating NUL.
const maxNameLen = 15

// processCPUs is the affinity mask the process started with. CPU indexes
// passed to ForkOnto are positions within it.
var processCPUs = sync.OnceValues(func() (unix.CPUSet, error) {
	var set unix.CPUSet
	err := unix.SchedGetaffinity(0, &set)
	return set, err
})

func currentTID() int { return unix.Gettid() }

func setAffinity(index int) error {
	allowed, err := processCPUs()
	if err != nil {
		return fmt.Errorf("thread: sched_getaffinity: %w", err)
	}
	cpu := nthCPU(&allowed, index)
	if cpu < 0 {
		return fmt.Errorf("%w: %d has no matching cpu in process mask", ErrInvalidAffinity, index)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("thread: sched_setaffinity cpu %d: %w", cpu, err)
	}
	return nil
}

func nthCPU(set *unix.CPUSet, index int) int {
	seen := 0
	for cpu := 0; cpu < len(set)*64; cpu++ {
		if !set.IsSet(cpu) {
			continue
		}
		if seen == index {
			return cpu
		}
		seen++
	}
	return -1
}

func setName(name string) error {
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	p, err := unix.BytePtrFromString(name)
	if err != nil {
		return fmt.Errorf("thread: name %q: %w", name, err)
	}
	if err := unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(p)), 0, 0, 0); err != nil {
		return fmt.Errorf("thread: prctl PR_SET_NAME: %w", err)
	}
	return nil
}
