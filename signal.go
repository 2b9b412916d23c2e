package thread

import "sync/atomic"

// Signal 0 is never a real signal; it exists only to probe whether a
// thread still exists (spec.md §4.5).
const SigProbe = 0

// SigMaskHow selects the operation SigMask performs.
type SigMaskHow int

const (
	SigGet SigMaskHow = iota
	SigSet
	SigBlock
	SigUnblock
)

func sigBit(sig int) uint32 { return 1 << uint(sig) }

// Kill sets the bit for sig in the target's pending set (spec.md §4.5). If
// the target is blocked on its self-pipe and the pending-and-unmasked set
// just became non-empty, a single byte is written to wake it, and its
// signalled counter is incremented so the sleeper loops back through the
// pipe after dispatching.
func (rt *Runtime) Kill(id int32, sig int) error {
	if sig < 0 || sig >= numSignals {
		return ErrInvalidArgument
	}
	target := rt.reg.byID(id)
	if target == nil {
		return ErrNotFound
	}
	if sig == SigProbe {
		return nil
	}

	target.mu.Lock()
	wasEmpty := (target.sigPending &^ target.sigMask) == 0
	target.sigPending |= sigBit(sig)
	becameNonEmpty := wasEmpty && (target.sigPending&^target.sigMask) != 0
	shouldWake := becameNonEmpty && target.blocked && atomic.LoadInt32(&target.signalled) == 0
	if shouldWake {
		atomic.AddInt32(&target.signalled, 1)
	}
	pipe := target.pipe
	target.mu.Unlock()

	if shouldWake && pipe != nil {
		_ = pipe.notify()
	}
	return nil
}

// SigMask reads and/or modifies the calling thread's signal mask
// (spec.md §6).
func (rt *Runtime) SigMask(how SigMaskHow, set uint32) (old uint32, err error) {
	e := rt.Self()
	e.mu.Lock()
	defer e.mu.Unlock()
	old = e.sigMask
	switch how {
	case SigGet:
	case SigSet:
		e.sigMask = set
	case SigBlock:
		e.sigMask |= set
	case SigUnblock:
		e.sigMask &^= set
	default:
		return old, ErrInvalidArgument
	}
	return old, nil
}

// SetHandler installs the handler for sig; pass nil to mean "ignore" and
// let the caller distinguish default-ignore by never calling SetHandler.
func (rt *Runtime) SetHandler(sig int, h SignalHandler) error {
	if sig <= 0 || sig >= numSignals {
		return ErrInvalidArgument
	}
	e := rt.Self()
	e.mu.Lock()
	e.sigHandlers[sig] = h
	e.mu.Unlock()
	return nil
}

// sigHandle is the dispatcher, called at every safe point: voluntary
// check_suspended, lock operation entry/exit, return from block/sigsuspend,
// voluntary pause, and inside interruptible sleep. It never runs while the
// calling thread holds a lock, and it will not re-enter the handler for a
// signal currently being handled (spec.md §4.5, invariant 6).
func (rt *Runtime) sigHandle(e *Element) (dispatched bool) {
	e.mu.Lock()
	if !e.lockStackEmpty() {
		e.mu.Unlock()
		return false
	}
	ready := e.sigPending &^ e.sigMask
	if ready == 0 {
		e.mu.Unlock()
		return false
	}
	e.mu.Unlock()

	for sig := 1; sig < numSignals; sig++ {
		bit := sigBit(sig)

		e.mu.Lock()
		if e.sigPending&bit == 0 || e.sigMask&bit != 0 {
			e.mu.Unlock()
			continue
		}
		if e.inSigHandler > 0 {
			e.mu.Unlock()
			continue
		}
		e.sigPending &^= bit
		savedMask := e.sigMask
		e.sigMask |= bit
		e.inSigHandler++
		handler := e.sigHandlers[sig]
		e.mu.Unlock()

		if handler != nil {
			handler(sig)
		}
		dispatched = true

		e.mu.Lock()
		e.inSigHandler--
		e.sigMask = savedMask
		e.sigGeneration++
		e.mu.Unlock()
	}
	return dispatched
}

// SigSuspend temporarily replaces the mask with mask, waits for a signal to
// be delivered, then restores the previous mask. Returns whether a signal
// was actually delivered.
func (rt *Runtime) SigSuspend(mask uint32) bool {
	e := rt.Self()
	e.mu.Lock()
	saved := e.sigMask
	e.sigMask = mask
	e.mu.Unlock()

	events := rt.BlockPrepare()
	_ = rt.Block(events)
	got := rt.sigHandle(e)

	e.mu.Lock()
	e.sigMask = saved
	e.mu.Unlock()
	return got
}

// Pause blocks the calling thread until any signal arrives, returning
// whether one was dispatched.
func (rt *Runtime) Pause() bool {
	e := rt.Self()
	events := rt.BlockPrepare()
	_ = rt.Block(events)
	return rt.sigHandle(e)
}
