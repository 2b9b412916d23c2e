package thread

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLockOrderError_UnwrapsToDeadlock(t *testing.T) {
	err := &LockOrderError{Address: 0x1, Expected: 0x2, Kind: LockMutex, File: "x.go", Line: 5}
	require.True(t, errors.Is(err, ErrDeadlock))
	require.Contains(t, err.Error(), "lock release out of order")
}

func TestDeadlockError_UnwrapsToDeadlock(t *testing.T) {
	err := &DeadlockError{Waiter: 1, Owner: 2, Address: 0x10}
	require.True(t, errors.Is(err, ErrDeadlock))
	require.Contains(t, err.Error(), "thread 1 deadlocked")
}

func TestSuspendWatchdogError_Message(t *testing.T) {
	err := &SuspendWatchdogError{SmallID: 3, Waited: "20s"}
	require.Contains(t, err.Error(), "thread 3")
	require.Contains(t, err.Error(), "20s")
}

func TestWrapError_PreservesCauseChain(t *testing.T) {
	err := WrapError("thread: discovery failed", ErrResourceExhausted)
	require.True(t, errors.Is(err, ErrResourceExhausted))
	require.Contains(t, err.Error(), "discovery failed")
}
