package thread

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInCrashMode_FalseByDefault(t *testing.T) {
	require.False(t, InCrashMode())
}

func TestEnterCrashMode_OneWayTransition(t *testing.T) {
	defer func() { crashMode.store(uint32(CrashNormal)) }()

	rt := New()
	require.False(t, InCrashMode())
	rt.EnterCrashMode()
	require.True(t, InCrashMode())

	// Second call is a no-op, not an error or a re-entrant panic.
	require.NotPanics(t, func() { rt.EnterCrashMode() })
	require.True(t, InCrashMode())
}

func TestEnterCrashMode_RecordsCrashingThread(t *testing.T) {
	defer func() { crashMode.store(uint32(CrashNormal)) }()

	rt := New()
	self := rt.Self()
	rt.EnterCrashMode()
	require.Equal(t, self.SmallID, crashingThread.Load())
}
