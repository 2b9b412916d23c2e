package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockMetrics_StatsZeroValueWhenUnrecorded(t *testing.T) {
	m := newLockMetrics()
	stats := m.Stats(0x1)
	require.Equal(t, 0, stats.Count)
}

func TestLockMetrics_RecordAccumulatesCount(t *testing.T) {
	m := newLockMetrics()
	for i := 0; i < 5; i++ {
		m.record(0x1, time.Duration(i+1)*time.Millisecond)
	}
	stats := m.Stats(0x1)
	require.Equal(t, 5, stats.Count)
	require.Greater(t, stats.Max, time.Duration(0))
}

func TestRuntime_RecordWaitIgnoresNonPositive(t *testing.T) {
	rt := New()
	rt.recordWait(0x1, 0)
	rt.recordWait(0x1, -time.Millisecond)
	require.Equal(t, 0, rt.LockStats(0x1).Count)
}

func TestRuntime_LockStatsTracksContendedMutex(t *testing.T) {
	rt := New()
	m := rt.NewMutex()
	m.Lock()
	done := make(chan struct{})
	go func() {
		m.Lock()
		m.Unlock()
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	m.Unlock()
	<-done

	stats := rt.LockStats(m.addr())
	require.Equal(t, 1, stats.Count)
}
