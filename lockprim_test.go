package thread

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMutex_LockUnlock_TracksStack(t *testing.T) {
	rt := New()
	m := rt.NewMutex()
	m.Lock()
	e := rt.Self()
	require.Len(t, e.lockStack, 1)
	m.Unlock()
	require.True(t, e.lockStackEmpty())
}

func TestMutex_MutualExclusion(t *testing.T) {
	rt := New()
	m := rt.NewMutex()
	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock()
			counter++
			m.Unlock()
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
}

func TestRWMutex_ReadersConcurrentWritersExclusive(t *testing.T) {
	rt := New()
	m := rt.NewRWMutex()
	m.RLock()
	m.RLock() // same goroutine can nest RLock; exercises LockGot without popping
	m.RUnlock()
	m.RUnlock()

	m.Lock()
	e := rt.Self()
	require.Equal(t, LockWrite, e.lockStack[len(e.lockStack)-1].Kind)
	m.Unlock()
}

func TestSpinlock_LockUnlock(t *testing.T) {
	rt := New()
	s := rt.NewSpinlock()
	s.Lock()
	require.False(t, rt.Self().lockStackEmpty())
	s.Unlock()
	require.True(t, rt.Self().lockStackEmpty())
}

func TestSpinlock_DeadlockEscalatesToCrashMode(t *testing.T) {
	defer func() { crashMode.store(uint32(CrashNormal)) }()
	origThreshold := spinThreshold
	spinThreshold = 10 * time.Millisecond
	defer func() { spinThreshold = origThreshold }()

	rt := New()
	s := rt.NewSpinlock()
	s.v.set() // simulate another thread holding it forever

	require.Panics(t, func() {
		s.Lock()
	})
	require.True(t, InCrashMode())
}
