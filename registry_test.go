package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRegistry_SeedsMainElement(t *testing.T) {
	r := newRegistry(8)
	main := r.byID(0)
	require.NotNil(t, main)
	require.Equal(t, KindMain, main.Kind)
	require.Equal(t, int32(1), r.next)
}

func TestRegistry_AllocateAssignsDistinctIDs(t *testing.T) {
	r := newRegistry(8)
	e1, err := r.allocate(KindCreated)
	require.NoError(t, err)
	e2, err := r.allocate(KindCreated)
	require.NoError(t, err)
	require.NotEqual(t, e1.SmallID, e2.SmallID)
}

func TestRegistry_AllocateReusesFreedSlot(t *testing.T) {
	r := newRegistry(8)
	e1, err := r.allocate(KindCreated)
	require.NoError(t, err)
	id := e1.SmallID

	e1.mu.Lock()
	e1.exitStarted = true
	e1.detached = true
	e1.mu.Unlock()
	r.markReusable(e1, 0)
	r.scavenge()

	e2, err := r.allocate(KindCreated)
	require.NoError(t, err)
	require.Equal(t, id, e2.SmallID)
}

func TestRegistry_AllocateExhaustionTimesOut(t *testing.T) {
	r := newRegistry(1) // only slot 0, reserved for main
	orig := reusableWaitBound
	reusableWaitBound = 20 * time.Millisecond
	defer func() { reusableWaitBound = orig }()

	_, err := r.allocate(KindCreated)
	require.ErrorIs(t, err, ErrResourceExhausted)
}

func TestRegistry_ByID_OutOfRange(t *testing.T) {
	r := newRegistry(4)
	require.Nil(t, r.byID(-1))
	require.Nil(t, r.byID(99))
}

func TestRegistry_ScanByQID_FindsMatch(t *testing.T) {
	r := newRegistry(8)
	e, err := r.allocate(KindCreated)
	require.NoError(t, err)
	e.mu.Lock()
	e.qid = 42
	e.mu.Unlock()

	found := r.scanByQID(42)
	require.Same(t, e, found)
	require.Nil(t, r.scanByQID(999))
}

func TestRegistry_ScanByQID_DiscoveredRange(t *testing.T) {
	r := newRegistry(8)
	e, err := r.allocate(KindDiscovered)
	require.NoError(t, err)
	e.mu.Lock()
	e.rangeLow, e.rangeHigh = 100, 200
	e.mu.Unlock()

	found := r.scanByQID(150)
	require.Same(t, e, found)
}
