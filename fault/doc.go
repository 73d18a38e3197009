// Package fault bridges non-local faults (panics) into ordinary error values.
// Raise transfers control to the innermost enclosing Catch on the same
// goroutine; a fault with no enclosing Catch terminates the process.
package fault
