package thread

import (
	"sync"
	"sync/atomic"
	"time"
)

// blockPipe is the per-thread self-pipe (or eventfd, or Win32 event)
// described in spec.md §4.6, created lazily on first use.
type blockPipe struct {
	once  sync.Once
	read  int
	write int
	err   error
}

func (p *blockPipe) ensure() error {
	p.once.Do(func() {
		r, w, err := createWakeFD()
		if err != nil {
			p.err = err
			return
		}
		p.read, p.write = r, w
	})
	return p.err
}

func (p *blockPipe) notify() error {
	if err := p.ensure(); err != nil {
		return ErrIO
	}
	if err := notifyWakeFD(p.write); err != nil {
		return ErrIO
	}
	return nil
}

func (p *blockPipe) drain() { drainWakeFD(p.read) }

func (p *blockPipe) close() {
	if p.read != 0 || p.write != 0 {
		_ = closeWakeFD(p.read, p.write)
	}
}

// BlockPrepare returns the current unblock-events counter for the calling
// thread. The caller does its critical evaluation, exits the critical
// section, then calls Block(events): if an Unblock raced in between,
// Block returns immediately instead of sleeping (spec.md §4.6, §5, and
// testable property 2).
func (rt *Runtime) BlockPrepare() uint64 {
	e := rt.Self()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unblockEvents
}

// Block sleeps the calling thread until Unblock is called, or returns
// immediately without waiting on the pipe if an Unblock raced before this
// call. A signal that arrives while blocked is dispatched and the thread
// goes back to sleep; it does not end the Block.
func (rt *Runtime) Block(events uint64) error {
	_, err := rt.timedBlockImpl(events, nil)
	return err
}

// TimedBlock is Block with a deadline; it returns ErrTimedOut if the
// deadline passes before an unblock arrives. Signals are dispatched without
// ending the wait.
func (rt *Runtime) TimedBlock(events uint64, deadline time.Time) error {
	_, err := rt.timedBlockImpl(events, &deadline)
	return err
}

func (rt *Runtime) timedBlockImpl(events uint64, deadline *time.Time) (timedOut bool, err error) {
	e := rt.Self()

	if e.pipe == nil {
		e.mu.Lock()
		if e.pipe == nil {
			e.pipe = &blockPipe{}
		}
		e.mu.Unlock()
	}
	if perr := e.pipe.ensure(); perr != nil {
		return false, ErrIO
	}

	for {
		e.mu.Lock()
		if e.unblockEvents != events {
			e.mu.Unlock()
			return false, nil
		}
		e.blocked = true
		e.mu.Unlock()

		timeoutMS := -1
		if deadline != nil {
			remaining := time.Until(*deadline)
			if remaining <= 0 {
				e.mu.Lock()
				e.blocked = false
				e.unblocked = false
				e.mu.Unlock()
				return true, ErrTimedOut
			}
			timeoutMS = int(remaining / time.Millisecond)
			if timeoutMS <= 0 {
				timeoutMS = 1
			}
		}

		ready, werr := waitWakeFD(e.pipe.read, timeoutMS)
		if werr != nil {
			e.mu.Lock()
			e.blocked = false
			e.unblocked = false
			e.mu.Unlock()
			return false, ErrIO
		}
		if ready {
			e.pipe.drain()
		}

		e.mu.Lock()
		e.blocked = false
		e.unblocked = false
		signalled := atomic.LoadInt32(&e.signalled)
		e.mu.Unlock()

		if !ready && signalled == 0 {
			return true, ErrTimedOut
		}

		if signalled > 0 {
			atomic.AddInt32(&e.signalled, -1)
			rt.sigHandle(e)
			continue
		}

		rt.checkSuspended(e)
		return false, nil
	}
}

// Unblock wakes the target if it is currently blocked, coalescing
// concurrent unblocks into a single pipe write (spec.md §4.6).
func (rt *Runtime) Unblock(id int32) error {
	target := rt.reg.byID(id)
	if target == nil {
		return ErrNotFound
	}

	target.mu.Lock()
	target.unblockEvents++
	shouldNotify := target.blocked && !target.unblocked
	if shouldNotify {
		target.unblocked = true
	}
	pipe := target.pipe
	target.mu.Unlock()

	if shouldNotify && pipe != nil {
		return pipe.notify()
	}
	return nil
}

// SleepMS sleeps the calling thread for at least ms milliseconds of
// monotonic elapsed time. Signals do not cut the sleep short: pending
// signals are dispatched only once the full interval has elapsed, and
// there is no interruptible variant.
func (rt *Runtime) SleepMS(ms int64) {
	e := rt.Self()
	deadline := time.Now().Add(time.Duration(ms) * time.Millisecond)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		timer := time.NewTimer(remaining)
		<-timer.C
		timer.Stop()
		if rt.sigHandle(e) {
			// A handler ran after the deadline was reached; the sleep is
			// over either way, whether or not the handler cancelled the
			// thread.
			if e2 := rt.cancelRequested(e); e2 {
				return
			}
		}
		return
	}
}
