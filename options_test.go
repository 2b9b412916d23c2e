package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveOptions_Defaults(t *testing.T) {
	o := resolveOptions(nil)
	require.Equal(t, defaultNMax, o.nMax)
	require.Equal(t, defaultLockStackCapacity, o.lockStackCapacity)
	require.Equal(t, defaultWatchdogInterval, o.watchdogInterval)
	require.Equal(t, defaultReclaimHoldTime, o.reclaimHoldTime)
}

func TestResolveOptions_OverridesApply(t *testing.T) {
	o := resolveOptions([]Option{
		WithMaxThreads(16),
		WithLockStackCapacity(4),
		WithSuspendWatchdog(time.Second),
		WithReclaimHoldTime(time.Minute),
	})
	require.Equal(t, 16, o.nMax)
	require.Equal(t, 4, o.lockStackCapacity)
	require.Equal(t, time.Second, o.watchdogInterval)
	require.Equal(t, time.Minute, o.reclaimHoldTime)
}

func TestResolveOptions_NilOptionIgnored(t *testing.T) {
	require.NotPanics(t, func() {
		resolveOptions([]Option{nil, WithMaxThreads(8)})
	})
}

func TestNew_AppliesOptionsToRegistry(t *testing.T) {
	rt := New(WithMaxThreads(2))
	require.Len(t, rt.reg.elements, 2)
}
