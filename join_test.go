package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJoin_UnknownTarget(t *testing.T) {
	rt := New()
	_, err := rt.Join(9999, false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestJoin_SelfIsDeadlock(t *testing.T) {
	rt := New()
	_, err := rt.Join(rt.Self().SmallID, false)
	require.ErrorIs(t, err, ErrDeadlock)
}

func TestJoin_WaitsForExitValue(t *testing.T) {
	rt := New()
	id, err := rt.Spawn(func(arg any) any {
		time.Sleep(20 * time.Millisecond)
		return "done"
	}, nil, 0, 0, nil)
	require.NoError(t, err)

	value, err := rt.Join(id, false)
	require.NoError(t, err)
	require.Equal(t, "done", value)
}

func TestJoin_NowaitWouldBlock(t *testing.T) {
	rt := New()
	id, err := rt.Spawn(func(arg any) any {
		time.Sleep(200 * time.Millisecond)
		return nil
	}, nil, 0, 0, nil)
	require.NoError(t, err)

	_, err = rt.Join(id, true)
	require.ErrorIs(t, err, ErrWouldBlock)
}

func TestJoin_DetachedRejected(t *testing.T) {
	rt := New()
	id, err := rt.Spawn(func(arg any) any {
		time.Sleep(20 * time.Millisecond)
		return nil
	}, nil, FlagDetach, 0, nil)
	require.NoError(t, err)

	_, err = rt.Join(id, false)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWaitUntil_TimesOut(t *testing.T) {
	rt := New()
	id, err := rt.Spawn(func(arg any) any {
		time.Sleep(500 * time.Millisecond)
		return nil
	}, nil, 0, 0, nil)
	require.NoError(t, err)

	_, err = rt.WaitUntil(id, time.Now().Add(20*time.Millisecond))
	require.ErrorIs(t, err, ErrTimedOut)
}

func TestDetach_InFlightJoinRejected(t *testing.T) {
	rt := New()
	id, err := rt.Spawn(func(arg any) any {
		time.Sleep(200 * time.Millisecond)
		return nil
	}, nil, 0, 0, nil)
	require.NoError(t, err)

	go func() { _, _ = rt.Join(id, false) }()
	time.Sleep(20 * time.Millisecond)

	require.ErrorIs(t, rt.Detach(id), ErrInvalidArgument)
}
