package thread

import "sync/atomic"

// crashMode is the single process-wide atomic switch described in
// spec.md §4.9. It is intentionally a package-level variable, not a
// Runtime field: crash mode exists so diagnostics can run even if the
// Runtime's own bookkeeping is wedged, so it must not depend on anything
// that could itself be stuck behind a lock.
var crashMode fastFlag

// crashingThread records the small_id that first entered crash mode, so
// diagnostic output can identify who triggered the degradation.
var crashingThread atomic.Int32

// InCrashMode reports whether the process-wide degraded mode is active. In
// crash mode a Spinlock acquire succeeds immediately, every tracked
// primitive skips lock accounting, and lock-order checks become permissive
// (spec.md invariant 4 and 5). Mutex and RWMutex acquires still wait for
// the underlying sync lock; they do not succeed immediately while another
// goroutine holds it.
func InCrashMode() bool {
	return crashMode.load() == uint32(CrashDegraded)
}

// EnterCrashMode flips the global switch exactly once. The first caller to
// win the CAS is recorded as the crashing thread, advisory suspension of
// every other thread is requested (best-effort — crash mode must make
// forward progress even if suspension cannot complete), and every
// subsequent lock acquire/release anywhere in the process becomes
// permissive as InCrashMode describes.
func (rt *Runtime) EnterCrashMode() {
	if !crashMode.tryTransition(uint32(CrashNormal), uint32(CrashDegraded)) {
		return
	}
	self := rt.Self()
	crashingThread.Store(self.SmallID)
	rt.logger().Logf(LevelError, "thread: entering crash mode, triggered by small_id=%d", self.SmallID)
	rt.suspendOthers(self, false)
}
