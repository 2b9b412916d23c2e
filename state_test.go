package thread

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFastFlag_LoadStoreRoundTrip(t *testing.T) {
	var f fastFlag
	require.Equal(t, uint32(0), f.load())
	f.store(7)
	require.Equal(t, uint32(7), f.load())
}

func TestFastFlag_TryTransitionOnlySucceedsFromExpected(t *testing.T) {
	var f fastFlag
	require.False(t, f.tryTransition(1, 2))
	require.True(t, f.tryTransition(0, 1))
	require.Equal(t, uint32(1), f.load())
	require.False(t, f.tryTransition(0, 2)) // already moved past 0
}
