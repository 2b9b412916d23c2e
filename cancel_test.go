package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCancelSetState_NonCancelableMainRejected(t *testing.T) {
	rt := New()
	_, err := rt.CancelSetState(CancelEnabled)
	require.ErrorIs(t, err, ErrPermission)
}

func TestCancelSetState_RoundTrip(t *testing.T) {
	rt := New()
	done := make(chan error, 1)
	// Runs in a created (cancelable) thread: discovered goroutines may not
	// re-enable cancellation.
	_, err := rt.Spawn(func(arg any) any {
		_, err := rt.CancelSetState(CancelDisabled)
		if err != nil {
			done <- err
			return nil
		}
		old, err := rt.CancelSetState(CancelEnabled)
		if err == nil && old != CancelDisabled {
			err = ErrInvalidArgument
		}
		done <- err
		return nil
	}, nil, 0, 0, nil)
	require.NoError(t, err)
	require.NoError(t, <-done)
}

func TestCancel_UnknownTargetNotFound(t *testing.T) {
	rt := New()
	require.ErrorIs(t, rt.Cancel(12345), ErrNotFound)
}

func TestCancel_NonCancelableRejected(t *testing.T) {
	rt := New()
	require.ErrorIs(t, rt.Cancel(0), ErrPermission) // small_id 0 is main, never cancelable
}

func TestCancel_LatchesAndWakesBlockedTarget(t *testing.T) {
	rt := New()
	id, err := rt.Spawn(func(arg any) any {
		events := rt.BlockPrepare()
		_ = rt.Block(events)
		rt.CancelTest()
		return nil
	}, nil, 0, 0, nil)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, rt.Cancel(id))

	_, joinErr := rt.WaitUntil(id, time.Now().Add(2*time.Second))
	require.NoError(t, joinErr)
}

func TestCleanupPushPop_RunsInLIFOOrder(t *testing.T) {
	rt := New()
	var order []int
	rt.CleanupPush(func(arg any) { order = append(order, 1) }, nil, "first")
	rt.CleanupPush(func(arg any) { order = append(order, 2) }, nil, "second")
	require.NoError(t, rt.CleanupPop(true, "second"))
	require.NoError(t, rt.CleanupPop(true, "first"))
	require.Equal(t, []int{2, 1}, order)
}

func TestCleanupPop_WrongSiteRejected(t *testing.T) {
	rt := New()
	ran := false
	rt.CleanupPush(func(arg any) { ran = true }, nil, "pusher")
	require.ErrorIs(t, rt.CleanupPop(true, "someone-else"), ErrInvalidArgument)
	require.False(t, ran)
	e := rt.Self()
	require.Len(t, e.cleanupStack, 1)
	require.NoError(t, rt.CleanupPop(true, "pusher"))
	require.True(t, ran)
}

func TestCleanupPop_NoRunDiscardsSilently(t *testing.T) {
	rt := New()
	ran := false
	rt.CleanupPush(func(arg any) { ran = true }, nil, "x")
	require.NoError(t, rt.CleanupPop(false, "x"))
	require.False(t, ran)
	e := rt.Self()
	require.Empty(t, e.cleanupStack)
}
