package thread

import (
	"sync"
	"time"
)

// terminationGate is a rendezvous point between a thread's exit and every
// caller waiting on it: the single Join plus any number of WaitUntil
// callers. It keeps no reference count; it lives as long as something
// points at it. Modeled on the teacher's promise settlement gate: a value plus a
// closed-once channel, except here the "settlement" is a thread's exit
// value rather than a resolved/rejected JS value.
type terminationGate struct {
	mu      sync.Mutex
	done    chan struct{}
	closed  bool
	value   any
	joined  bool
}

func newTerminationGate() *terminationGate {
	return &terminationGate{done: make(chan struct{})}
}

func (g *terminationGate) settle(value any) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.value = value
	g.closed = true
	g.mu.Unlock()
	close(g.done)
}

// Join waits for the target thread to exit and returns its exit value
// (spec.md §4.11). A thread may be joined at most once: on success the
// element is latched `joined` and handed to the registry's reusable
// freelist, so a second Join on the same id — testable property #7 — finds
// `joined` already set and reports not-found rather than leaking the
// small_id forever. While a joiner is waiting, `joinRequested`/`joiningID`
// record who (spec.md §3's data model), both for Detach's conflict check
// below and for diagnostics; they are cleared again once the wait ends.
func (rt *Runtime) Join(id int32, nowait bool) (any, error) {
	target := rt.reg.byID(id)
	if target == nil {
		return nil, ErrNotFound
	}
	if target.SmallID == rt.Self().SmallID {
		return nil, ErrDeadlock
	}
	if target.Kind != KindCreated {
		return nil, ErrInvalidArgument
	}

	target.mu.Lock()
	if target.joined {
		target.mu.Unlock()
		return nil, ErrNotFound
	}
	if target.detached {
		target.mu.Unlock()
		return nil, ErrInvalidArgument
	}
	gate := target.gate
	if gate == nil {
		gate = newTerminationGate()
		target.gate = gate
	}
	exited := target.joinPending
	if !exited {
		if nowait {
			target.mu.Unlock()
			return nil, ErrWouldBlock
		}
		target.joinRequested = true
		target.joiningID = rt.Self().SmallID
	}
	target.mu.Unlock()

	if !exited {
		<-gate.done
		target.mu.Lock()
		target.joinRequested = false
		target.joiningID = 0
		target.mu.Unlock()
	}

	gate.mu.Lock()
	value := gate.value
	gate.mu.Unlock()

	target.mu.Lock()
	target.joined = true
	target.joinPending = false
	target.mu.Unlock()

	rt.reg.markReusable(target, 0)
	return value, nil
}

// WaitUntil waits for the target thread to exit, or for deadline to pass,
// whichever comes first (spec.md §4.11's `wait_until`). Unlike Join it is
// not exclusive — any number of callers may rendezvous on the same
// terminationGate, per spec.md §9 — so it never touches `joined`,
// `joinRequested`, or the registry freelist; reclaiming the small_id
// remains Join's job.
func (rt *Runtime) WaitUntil(id int32, deadline time.Time) (any, error) {
	target := rt.reg.byID(id)
	if target == nil {
		return nil, ErrNotFound
	}
	if target.SmallID == rt.Self().SmallID {
		return nil, ErrDeadlock
	}

	target.mu.Lock()
	gate := target.gate
	if gate == nil {
		gate = newTerminationGate()
		target.gate = gate
	}
	target.mu.Unlock()

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-gate.done:
		gate.mu.Lock()
		value := gate.value
		gate.mu.Unlock()
		return value, nil
	case <-timer.C:
		return nil, ErrTimedOut
	}
}

// Detach marks a thread as not joinable, letting its element be reclaimed
// once it exits without ever waiting for a joiner (spec.md §4.10). It
// conflicts with an in-flight or already-consumed Join, exactly the
// `joinRequested`/`joinPending`/`joined` states Join itself manages.
func (rt *Runtime) Detach(id int32) error {
	target := rt.reg.byID(id)
	if target == nil {
		return ErrNotFound
	}
	target.mu.Lock()
	defer target.mu.Unlock()
	if target.joinRequested || target.joinPending || target.joined {
		return ErrInvalidArgument
	}
	target.detached = true
	return nil
}
