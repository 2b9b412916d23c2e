package thread

import (
	"sync"
	"time"
)

// LockStats is a snapshot of wait-time percentiles for one lock address,
// fed by the P-Square streaming estimator below. It is read through
// Runtime.LockStats; deadlock dumps (LockDeadlock) do not include it.
type LockStats struct {
	Address uintptr
	Count   int
	P50     time.Duration
	P90     time.Duration
	P99     time.Duration
	Max     time.Duration
}

// lockMetrics tracks wait-time distributions per lock address. This
// repurposes the teacher's task-latency percentile tracker (psquare.go) —
// unchanged algorithmically — for lock contention instead of event-loop
// tick latency.
type lockMetrics struct {
	mu     sync.Mutex
	byLock map[uintptr]*waitQuantileSet
}

func newLockMetrics() *lockMetrics {
	return &lockMetrics{byLock: make(map[uintptr]*waitQuantileSet)}
}

func (m *lockMetrics) record(addr uintptr, wait time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	est, ok := m.byLock[addr]
	if !ok {
		est = newWaitQuantileSet(0.50, 0.90, 0.99)
		m.byLock[addr] = est
	}
	est.Update(float64(wait))
}

// Stats returns a point-in-time snapshot for addr, or the zero value if no
// waits have been recorded for it yet.
func (m *lockMetrics) Stats(addr uintptr) LockStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	est, ok := m.byLock[addr]
	if !ok {
		return LockStats{Address: addr}
	}
	return LockStats{
		Address: addr,
		Count:   est.Count(),
		P50:     time.Duration(est.Quantile(0)),
		P90:     time.Duration(est.Quantile(1)),
		P99:     time.Duration(est.Quantile(2)),
		Max:     time.Duration(est.Max()),
	}
}

// recordWait is the entry point lock primitives call after successfully
// acquiring a contended lock.
func (rt *Runtime) recordWait(addr uintptr, wait time.Duration) {
	if wait <= 0 {
		return
	}
	rt.metrics.record(addr, wait)
}

// LockStats exposes the current wait-time percentiles for addr.
func (rt *Runtime) LockStats(addr uintptr) LockStats {
	return rt.metrics.Stats(addr)
}
