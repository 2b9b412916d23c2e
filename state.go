package thread

import (
	"sync/atomic"
)

// CrashState represents the global degradation switch described in
// spec.md §4.9.
//
// State Machine:
//
//	CrashNormal (0) -> CrashDegraded (1)   [EnterCrashMode, once, one-way]
//
// There is no transition back out of CrashDegraded: the whole point of
// crash mode is to let a diagnostic dump complete in a process that is
// already known to be in an inconsistent state, so nothing ever resets it.
type CrashState uint32

const (
	CrashNormal   CrashState = 0
	CrashDegraded CrashState = 1
)

// fastFlag is a lock-free one-way or reversible boolean switch with cache
// line padding, used for crash mode and any other process-wide bit that is
// read far more often than it is written.
type fastFlag struct {
	_ [64]byte
	v atomic.Uint32
	_ [60]byte
}

func (f *fastFlag) load() uint32 { return f.v.Load() }

func (f *fastFlag) store(val uint32) { f.v.Store(val) }

// tryTransition performs the CAS described in the design notes for the
// runtime's global mutable state: initialize once, never tear down.
func (f *fastFlag) tryTransition(from, to uint32) bool {
	return f.v.CompareAndSwap(from, to)
}
