// Package thread provides the error taxonomy used across the runtime, with
// cause-chain support so callers can use [errors.Is] / [errors.As] against
// either the sentinel kind or the wrapped detail.
package thread

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per kind in the spec's error taxonomy. Wrapped
// detail types below all Unwrap to one of these.
var (
	// ErrNotFound means an id refers to no valid element.
	ErrNotFound = errors.New("thread: no such thread")

	// ErrInvalidArgument means a bad signal number, bad state, bad key, or
	// a self-target where that is forbidden.
	ErrInvalidArgument = errors.New("thread: invalid argument")

	// ErrPermission means cancel of a non-cancelable thread, or an attempt
	// to enable cancellation on a thread that is not cancelable.
	ErrPermission = errors.New("thread: operation not permitted")

	// ErrDeadlock means a cycle among blocked threads, or a self-join.
	ErrDeadlock = errors.New("thread: deadlock detected")

	// ErrResourceExhausted means the small-id space is full with no
	// reusable slot after a bounded wait, or the host refused a stack
	// allocation.
	ErrResourceExhausted = errors.New("thread: resource exhausted")

	// ErrWouldBlock means a non-blocking join was attempted on a thread
	// that is still running.
	ErrWouldBlock = errors.New("thread: would block")

	// ErrTimedOut means a waiter reached its deadline.
	ErrTimedOut = errors.New("thread: timed out")

	// ErrIO means the self-pipe read or write failed; this is fatal, since
	// the runtime cannot continue to guarantee wakeups once it happens.
	ErrIO = errors.New("thread: self-pipe i/o failure")
)

// LockOrderError reports a release that did not match the top of the
// releasing thread's lock stack, outside of crash mode. This is one of the
// conditions that implies runtime corruption (spec.md §7) and is normally
// fatal rather than returned to a caller.
type LockOrderError struct {
	Address  uintptr
	Expected uintptr
	Kind     LockKind
	File     string
	Line     int
}

func (e *LockOrderError) Error() string {
	return fmt.Sprintf("thread: lock release out of order: released %#x, expected %#x (%s at %s:%d)",
		e.Address, e.Expected, e.Kind, e.File, e.Line)
}

// Unwrap lets errors.Is(err, ErrDeadlock) match lock-order faults that
// escalated into a deadlock abort.
func (e *LockOrderError) Unwrap() error { return ErrDeadlock }

// DeadlockError carries the diagnostic dump produced by lock_deadlock: the
// waiting thread's own lock stack and the stack of the thread that holds
// the contested lock.
type DeadlockError struct {
	Waiter      int32
	Owner       int32
	Address     uintptr
	WaiterStack []LockFrame
	OwnerStack  []LockFrame
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("thread: thread %d deadlocked on %#x held by thread %d", e.Waiter, e.Address, e.Owner)
}

func (e *DeadlockError) Unwrap() error { return ErrDeadlock }

// SuspendWatchdogError is raised (as a panic, not a returned error) when a
// thread's suspend watchdog fires because suspension took longer than the
// configured bound.
type SuspendWatchdogError struct {
	SmallID int32
	Waited  string
}

func (e *SuspendWatchdogError) Error() string {
	return fmt.Sprintf("thread: suspension watchdog fired for thread %d after %s", e.SmallID, e.Waited)
}

// WrapError wraps an error with a message and an optional cause, for
// convenience in places that want a single formatted error that still
// satisfies errors.Is/errors.As against the cause.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
