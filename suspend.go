package thread

import (
	"sync"
	"time"
)

// suspendMu is the global suspend mutex guarding suspend_others /
// unsuspend_others (spec.md §4.8); it is process-wide because suspension is
// inherently a whole-runtime operation.
var suspendMu sync.Mutex

// SuspendOthers increments suspend_depth on every element but the caller's.
// If waitForLocks is true it then polls until no other element holds any
// lock before returning.
func (rt *Runtime) SuspendOthers(waitForLocks bool) {
	rt.suspendOthers(rt.Self(), waitForLocks)
}

func (rt *Runtime) suspendOthers(caller *Element, waitForLocks bool) {
	suspendMu.Lock()
	defer suspendMu.Unlock()

	caller.mu.Lock()
	if caller.suspendReent {
		caller.mu.Unlock()
		return
	}
	caller.suspendReent = true
	caller.mu.Unlock()
	defer func() {
		caller.mu.Lock()
		caller.suspendReent = false
		caller.mu.Unlock()
	}()

	rt.reg.mu.Lock()
	targets := make([]*Element, 0, len(rt.reg.elements))
	for _, e := range rt.reg.elements {
		if e != nil && e != caller {
			targets = append(targets, e)
		}
	}
	rt.reg.mu.Unlock()

	for _, e := range targets {
		e.mu.Lock()
		e.suspendDepth++
		e.mu.Unlock()
	}

	if !waitForLocks {
		return
	}
	deadline := time.Now().Add(rt.opts.watchdogInterval)
	for time.Now().Before(deadline) {
		busy := false
		for _, e := range targets {
			e.mu.Lock()
			if !e.lockStackEmpty() && !InCrashMode() {
				busy = true
			}
			e.mu.Unlock()
			if busy {
				break
			}
		}
		if !busy {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

// UnsuspendOthers decrements suspend_depth on every other element.
func (rt *Runtime) UnsuspendOthers() {
	caller := rt.Self()
	rt.reg.mu.Lock()
	targets := make([]*Element, 0, len(rt.reg.elements))
	for _, e := range rt.reg.elements {
		if e != nil && e != caller {
			targets = append(targets, e)
		}
	}
	rt.reg.mu.Unlock()

	for _, e := range targets {
		e.mu.Lock()
		if e.suspendDepth > 0 {
			e.suspendDepth--
		}
		e.mu.Unlock()
	}
}

// CheckSuspended is the voluntary safe point a thread calls to honor a
// pending suspension request. It returns whether it actually delayed. When
// called by the main thread it also drains the async exit-callback queue
// (spec.md §4.10 step 6): the main thread has no other regular tick of its
// own to hang that drain off, and check_suspended is the one safe point the
// spec names as purely voluntary, so it doubles as the queue's dispatcher.
func (rt *Runtime) CheckSuspended() bool {
	self := rt.Self()
	if self.SmallID == 0 {
		rt.DrainExitCallbacks()
	}
	return rt.checkSuspended(self)
}

// checkSuspended loops on a short sleep while e.suspendDepth is nonzero and
// e's lock stack is empty (or the process is in crash mode), firing the
// watchdog if the wait exceeds the configured bound (spec.md §4.8).
func (rt *Runtime) checkSuspended(e *Element) bool {
	e.mu.Lock()
	depth := e.suspendDepth
	empty := e.lockStackEmpty()
	e.mu.Unlock()
	if depth == 0 || (!empty && !InCrashMode()) {
		return false
	}

	start := time.Now()
	delayed := false
	for {
		e.mu.Lock()
		depth = e.suspendDepth
		e.mu.Unlock()
		if depth == 0 {
			return delayed
		}
		delayed = true
		if time.Since(start) > rt.opts.watchdogInterval {
			err := &SuspendWatchdogError{SmallID: e.SmallID, Waited: time.Since(start).String()}
			rt.logger().Logf(LevelError, "%s", err.Error())
			panic(err)
		}
		time.Sleep(time.Millisecond)
	}
}
