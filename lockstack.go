package thread

import "time"

// LockGot pushes a frame onto the calling thread's lock stack
// (spec.md §4.4). If this is the thread's only lock and a suspension is
// pending, reacquire is responsible for physically releasing the
// primitive, honoring the suspension, and physically reacquiring it;
// LockGot itself only adjusts the accounting around that call.
func (rt *Runtime) LockGot(addr uintptr, kind LockKind, file string, line int, reacquire func()) {
	e := rt.Self()
	e.mu.Lock()
	if len(e.lockStack) >= rt.opts.lockStackCapacity {
		e.mu.Unlock()
		panic(WrapError("thread: lock stack overflow", ErrResourceExhausted))
	}
	e.lockStack = append(e.lockStack, LockFrame{Address: addr, Kind: kind, File: file, Line: line})
	e.waiting = nil
	wasOnly := len(e.lockStack) == 1
	suspendPending := e.suspendDepth > 0
	e.mu.Unlock()

	if wasOnly && suspendPending && reacquire != nil {
		rt.LockReleased(addr, kind, nil)
		reacquire()
		e.mu.Lock()
		e.lockStack = append(e.lockStack, LockFrame{Address: addr, Kind: kind, File: file, Line: line})
		e.mu.Unlock()
	}
}

// LockReleased pops the top frame (spec.md §4.4). If the top does not
// match addr, the stack is searched: a match deeper in the stack is an
// out-of-order release, fatal outside crash mode. A release with no
// matching frame anywhere is silently ignored, to tolerate the case where
// the runtime learned about the thread after the lock was already held.
func (rt *Runtime) LockReleased(addr uintptr, kind LockKind, elem *Element) {
	e := elem
	if e == nil {
		e = rt.Self()
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.lockStack)
	if n == 0 {
		return
	}
	if e.lockStack[n-1].Address == addr {
		e.lockStack = e.lockStack[:n-1]
		return
	}

	for i := n - 2; i >= 0; i-- {
		if e.lockStack[i].Address == addr {
			if InCrashMode() {
				// Permissive scan: splice the frame out wherever it is.
				e.lockStack = append(e.lockStack[:i], e.lockStack[i+1:]...)
				return
			}
			expected := e.lockStack[n-1]
			err := &LockOrderError{Address: addr, Expected: expected.Address, Kind: kind, File: expected.File, Line: expected.Line}
			rt.logger().Logf(LevelError, "%s", err.Error())
			panic(err)
		}
	}
	// Not found anywhere: a lock this thread never recorded taking. Ignore.
}

// LockGotSwap atomically replaces the topmost frame, used when a critical
// section hands off from one lock to another (spec.md §4.4).
func (rt *Runtime) LockGotSwap(newAddr uintptr, newKind LockKind, file string, line int, prevAddr uintptr) {
	e := rt.Self()
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.lockStack)
	if n > 0 && e.lockStack[n-1].Address == prevAddr {
		e.lockStack[n-1] = LockFrame{Address: newAddr, Kind: newKind, File: file, Line: line}
		return
	}
	e.lockStack = append(e.lockStack, LockFrame{Address: newAddr, Kind: newKind, File: file, Line: line})
}

// LockChanged updates the kind of the topmost matching frame in place,
// e.g. for a read-to-write lock promotion (spec.md §4.4).
func (rt *Runtime) LockChanged(addr uintptr, newKind LockKind) {
	e := rt.Self()
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.lockStack) - 1; i >= 0; i-- {
		if e.lockStack[i].Address == addr {
			e.lockStack[i].Kind = newKind
			return
		}
	}
}

// LockWaitingElement records intent to acquire addr before blocking, so a
// deadlock report can show who waits on what.
func (rt *Runtime) LockWaitingElement(addr uintptr, kind LockKind, file string, line int) {
	e := rt.Self()
	e.mu.Lock()
	e.waiting = &LockFrame{Address: addr, Kind: kind, File: file, Line: line}
	e.mu.Unlock()
}

// LockWaitingDone clears the waiting-on record once the lock is acquired.
func (rt *Runtime) LockWaitingDone() {
	e := rt.Self()
	e.mu.Lock()
	e.waiting = nil
	e.mu.Unlock()
}

// findOwner scans the registry for a thread whose lock stack holds addr,
// for deadlock reporting.
func (rt *Runtime) findOwner(addr uintptr) *Element {
	rt.reg.mu.Lock()
	defer rt.reg.mu.Unlock()
	for _, e := range rt.reg.elements {
		if e == nil {
			continue
		}
		e.mu.Lock()
		for _, f := range e.lockStack {
			if f.Address == addr {
				e.mu.Unlock()
				return e
			}
		}
		e.mu.Unlock()
	}
	return nil
}

// LockDeadlock is called once a caller has spun past the spin threshold
// trying to acquire addr without success. It collects both lock stacks into
// a *DeadlockError, logs it, enters crash mode, and returns it (spec.md
// §4.4, §7); it does not abort by itself, the caller decides (Spinlock.Lock
// panics with it).
func (rt *Runtime) LockDeadlock(addr uintptr) error {
	self := rt.Self()
	owner := rt.findOwner(addr)

	self.mu.Lock()
	waiterStack := append([]LockFrame(nil), self.lockStack...)
	self.mu.Unlock()

	var ownerStack []LockFrame
	var ownerID int32 = -1
	if owner != nil {
		owner.mu.Lock()
		ownerStack = append([]LockFrame(nil), owner.lockStack...)
		ownerID = owner.SmallID
		owner.mu.Unlock()
	}

	err := &DeadlockError{Waiter: self.SmallID, Owner: ownerID, Address: addr, WaiterStack: waiterStack, OwnerStack: ownerStack}
	rt.logger().Logf(LevelError, "%s", err.Error())
	rt.EnterCrashMode()
	return err
}

// spinThreshold bounds how long Spinlock.Lock will busy-wait before
// escalating to LockDeadlock; exposed so tests can shrink it.
var spinThreshold = 200 * time.Millisecond
