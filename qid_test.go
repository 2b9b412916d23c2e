package thread

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseGoroutineID_ValidHeader(t *testing.T) {
	id := parseGoroutineID([]byte("goroutine 42 [running]:\nmore stack..."))
	require.Equal(t, uint64(42), id)
}

func TestParseGoroutineID_MalformedHeaderReturnsZero(t *testing.T) {
	require.Equal(t, uint64(0), parseGoroutineID([]byte("not a goroutine header")))
	require.Equal(t, uint64(0), parseGoroutineID([]byte("go")))
}

func TestCurrentQID_StableWithinGoroutine(t *testing.T) {
	a := currentQID()
	b := currentQID()
	require.Equal(t, a, b)
	require.NotZero(t, a)
}

func TestCurrentQID_DistinctAcrossGoroutines(t *testing.T) {
	mainQID := currentQID()
	done := make(chan uint64)
	go func() { done <- currentQID() }()
	otherQID := <-done
	require.NotEqual(t, mainQID, otherQID)
}

func TestQIDCache_StoreAndLookup(t *testing.T) {
	var c qidCache
	_, ok := c.lookup(7)
	require.False(t, ok)

	c.store(7, 3)
	id, ok := c.lookup(7)
	require.True(t, ok)
	require.Equal(t, int32(3), id)
}

func TestQIDCache_PurgeRangeClearsNonMatching(t *testing.T) {
	var c qidCache
	c.store(10, 1)
	c.store(20, 2)

	c.purgeRange(0, 100, 2) // keep small_id 2's entries, purge everything else
	_, ok := c.lookup(10)
	require.False(t, ok)
	id, ok := c.lookup(20)
	require.True(t, ok)
	require.Equal(t, int32(2), id)
}
