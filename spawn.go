package thread

import (
	"runtime"
)

// SpawnFlags configures a created thread. Flags compose by bitwise OR.
type SpawnFlags uint8

const (
	// FlagDetach means the thread is never joined; its element is
	// reclaimed after the configured hold time once it exits.
	FlagDetach SpawnFlags = 1 << iota
	// FlagAsyncExit means the optional exit callback runs on the main
	// thread's exit-callback queue instead of synchronously in exit_internal.
	FlagAsyncExit
	// FlagNoCancel means the created thread starts with cancellation
	// disabled rather than the default enabled state.
	FlagNoCancel
)

// Spawn creates a thread running entry(arg) and returns its small_id
// (spec.md §4.10). opt_exit_cb, if non-nil, runs once the thread exits,
// either synchronously just before exit_internal's final steps or
// asynchronously on the main thread's queue, per FlagAsyncExit.
func (rt *Runtime) Spawn(entry func(arg any) any, arg any, flags SpawnFlags, stackBytes int, exitCB func(arg any)) (int32, error) {
	e, err := rt.reg.allocate(KindCreated)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	e.entry = entry
	e.arg = arg
	e.detached = flags&FlagDetach != 0
	e.cancelable = true
	if flags&FlagNoCancel != 0 {
		e.cancelState = CancelDisabled
	} else {
		e.cancelState = CancelEnabled
	}
	if exitCB != nil {
		async := flags&FlagAsyncExit != 0
		e.exitCallbacks = append(e.exitCallbacks, exitCallback{fn: wrapExitCB(rt, exitCB, async), arg: nil})
	}
	e.mu.Unlock()

	ready := make(chan struct{})

	go func() {
		q := currentQID()
		e.mu.Lock()
		e.qid = q
		e.lastQID = q
		e.mu.Unlock()
		rt.reg.cache.store(q, e.SmallID)
		close(ready)

		rt.logger().Logf(LevelDebug, "thread: small_id=%d trampoline entered (qid=%d)", e.SmallID, q)

		value := entry(arg)
		rt.exitInternal(e, nil, value)
	}()

	<-ready
	return e.SmallID, nil
}

// wrapExitCB adapts a plain exit callback into something that knows
// whether it must hop to the main thread's async queue.
func wrapExitCB(rt *Runtime, fn func(arg any), async bool) func(arg any) {
	if !async {
		return fn
	}
	return func(arg any) {
		rt.exitQueue.push(exitCallback{fn: fn, arg: arg})
	}
}

// exitInternal runs the full thread-teardown sequence (spec.md §4.10). sp
// is nil for an implicit return (ordinary entry-function return) and
// non-nil when called from Exit, a cancellation point, or an explicit Cancel
// of self, mirroring the trampoline's two call sites for the native version.
func (rt *Runtime) exitInternal(e *Element, sp *uintptr, value any) {
	e.mu.Lock()
	if e.exitStarted {
		e.mu.Unlock()
		return
	}
	e.exitStarted = true
	e.cancelState = CancelDisabled
	e.sigMask = ^uint32(0)
	e.mu.Unlock()

	rt.drainCleanupStack(e, sp == nil)

	e.mu.Lock()
	empty := e.lockStackEmpty()
	e.mu.Unlock()
	if !empty && !InCrashMode() {
		panic(WrapError("thread: exiting with non-empty lock stack", ErrResourceExhausted))
	}

	runLocalDestructors(e)
	runPrivateDestructors(e)

	e.mu.Lock()
	e.exitValue = value
	gate := e.gate
	if gate == nil {
		gate = newTerminationGate()
		e.gate = gate
	}
	callbacks := e.exitCallbacks
	e.exitCallbacks = nil
	detached := e.detached
	e.mu.Unlock()

	gate.settle(value)

	for _, cb := range callbacks {
		cb.fn(cb.arg)
	}

	if e.pipe != nil {
		e.pipe.close()
	}

	if detached {
		rt.reg.markReusable(e, rt.opts.reclaimHoldTime)
	} else {
		e.mu.Lock()
		e.joinPending = true
		e.mu.Unlock()
	}

	rt.logger().Logf(LevelDebug, "thread: small_id=%d exited", e.SmallID)
	close(e.done)

	runtime.Goexit()
}

// Exit is the public entry point for a thread that wants to end itself
// explicitly (distinct from merely returning from its entry function).
func (rt *Runtime) Exit(value any) {
	e := rt.Self()
	sp := callDepth(1)
	rt.exitInternal(e, &sp, value)
	runtime.Goexit()
}
