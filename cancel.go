package thread

import (
	"runtime"
)

// CancelSentinel is the value ExitInternal records when a thread exits
// because it observed its own cancellation at a cancellation point.
var CancelSentinel = &struct{ name string }{"thread.CancelSentinel"}

// CancelSetState toggles the calling thread's cancel-enabled state,
// returning the previous value. Threads that are not cancelable (main,
// discovered) cannot move from disabled to enabled (spec.md §4.7).
func (rt *Runtime) CancelSetState(new CancelState) (old CancelState, err error) {
	e := rt.Self()
	e.mu.Lock()
	defer e.mu.Unlock()
	old = e.cancelState
	if new == CancelEnabled && !e.cancelable {
		return old, ErrPermission
	}
	e.cancelState = new
	return old, nil
}

// Cancel latches the cancelled bit on target. If target is the caller and
// cancellation is enabled, the caller exits immediately with
// CancelSentinel. Otherwise, if target is blocked it is woken so it will
// observe the cancellation at its next cancellation point.
func (rt *Runtime) Cancel(id int32) error {
	target := rt.reg.byID(id)
	if target == nil {
		return ErrNotFound
	}
	if !target.cancelable {
		return ErrPermission
	}

	callerID := rt.Self().SmallID

	target.mu.Lock()
	target.cancelled = true
	self := target.SmallID == callerID
	enabled := target.cancelState == CancelEnabled
	blocked := target.blocked
	target.mu.Unlock()

	if self && enabled {
		sp := callDepth(1)
		rt.exitInternal(target, &sp, CancelSentinel)
		runtime.Goexit()
	}
	if blocked {
		_ = rt.Unblock(target.SmallID)
	}
	return nil
}

// CancelTest is a cancellation point: if the calling thread is cancelled,
// enabled, cancelable, and not already exiting, and holds no locks, it
// exits immediately with CancelSentinel and never returns.
func (rt *Runtime) CancelTest() {
	e := rt.Self()
	if rt.cancelRequested(e) {
		sp := callDepth(1)
		rt.exitInternal(e, &sp, CancelSentinel)
		runtime.Goexit()
	}
}

// cancelRequested reports (without acting) whether e should be treated as
// cancelled at this instant: latched, enabled, cancelable, not mid-exit,
// and holding no locks (spec.md §5, "deferred... only when the lock stack
// is empty").
func (rt *Runtime) cancelRequested(e *Element) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled && e.cancelState == CancelEnabled && e.cancelable && !e.exitStarted && e.lockStackEmpty()
}

// callDepth approximates "the caller's stack pointer" (spec.md §4.7) with
// the caller's distance, in stack frames, from the goroutine's entry point.
// Go gives no portable way to compare raw stack addresses across calls the
// way a C implementation walks an actual SP (see DESIGN.md's deviations
// list), but frame count moves in lockstep with stack depth and serves the
// same purpose: two calls made directly from the same function, with
// nothing else on the stack in between, always measure equal. skip is the
// number of additional frames, beyond callDepth and runtime.Callers
// themselves, to discard before counting — callers pass 1 to have the
// count start at their own caller.
func callDepth(skip int) uintptr {
	var pcs [512]uintptr
	n := runtime.Callers(2+skip, pcs[:])
	return uintptr(n)
}

// CleanupPush registers a handler to run, in LIFO order, on thread exit or
// cancellation. site is a caller-supplied label (typically the enclosing
// function's name) used by CleanupPop to detect stale pops across
// unrelated stack frames.
func (rt *Runtime) CleanupPush(fn func(arg any), arg any, site string) {
	e := rt.Self()
	depth := callDepth(1)
	e.mu.Lock()
	e.cleanupStack = append(e.cleanupStack, cleanupFrame{fn: fn, arg: arg, site: site, regSP: depth, funcName: site})
	e.mu.Unlock()
}

// CleanupPop pops the most recently pushed handler, provided site names the
// same enclosing routine CleanupPush was called from and the caller has not
// unwound past the push site into a deeper nested call. Both checks guard
// against the obsolete-entry case spec.md §4.7 calls out: "verifies that
// the caller's stack pointer is not lower ... than the recorded sp ...,
// that the caller's routine name matches". A mismatch on either leaves the
// stack untouched and reports ErrInvalidArgument rather than popping (and
// possibly running) a handler that belongs to a frame the caller has
// already left. If run is true, the handler executes with cancellation
// disabled for its duration, then the previous cancel state is restored.
func (rt *Runtime) CleanupPop(run bool, site string) error {
	e := rt.Self()
	depth := callDepth(1)

	e.mu.Lock()
	n := len(e.cleanupStack)
	if n == 0 {
		e.mu.Unlock()
		return ErrInvalidArgument
	}
	frame := e.cleanupStack[n-1]
	if frame.funcName != site || depth > frame.regSP {
		e.mu.Unlock()
		return ErrInvalidArgument
	}
	e.cleanupStack = e.cleanupStack[:n-1]
	e.mu.Unlock()

	if !run {
		return nil
	}
	old, _ := rt.CancelSetState(CancelDisabled)
	frame.fn(frame.arg)
	_, _ = rt.CancelSetState(old)
	return nil
}

// drainCleanupStack runs (or, on an implicit return, discards with a
// warning) every remaining cleanup handler in LIFO order during
// ExitInternal (spec.md §4.7).
func (rt *Runtime) drainCleanupStack(e *Element, implicit bool) {
	e.mu.Lock()
	stack := e.cleanupStack
	e.cleanupStack = nil
	e.mu.Unlock()

	for i := len(stack) - 1; i >= 0; i-- {
		frame := stack[i]
		if implicit {
			rt.logger().Logf(LevelWarn, "thread: small_id=%d exited implicitly with a non-empty cleanup stack (%s); discarding", e.SmallID, frame.site)
			continue
		}
		old, _ := rt.CancelSetState(CancelDisabled)
		frame.fn(frame.arg)
		_, _ = rt.CancelSetState(old)
	}
}
