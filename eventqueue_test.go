package thread

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCallbackQueue_FIFOOrder(t *testing.T) {
	q := newExitCallbackQueue()
	var order []int
	q.push(exitCallback{fn: func(arg any) { order = append(order, arg.(int)) }, arg: 1})
	q.push(exitCallback{fn: func(arg any) { order = append(order, arg.(int)) }, arg: 2})
	q.push(exitCallback{fn: func(arg any) { order = append(order, arg.(int)) }, arg: 3})

	for i := 0; i < 3; i++ {
		cb, ok := q.pop()
		require.True(t, ok)
		cb.fn(cb.arg)
	}
	require.Equal(t, []int{1, 2, 3}, order)

	_, ok := q.pop()
	require.False(t, ok)
}

func TestExitCallbackQueue_SpansMultipleChunks(t *testing.T) {
	q := newExitCallbackQueue()
	n := exitQueueChunkSize*2 + 10
	for i := 0; i < n; i++ {
		q.push(exitCallback{fn: func(arg any) {}, arg: i})
	}
	require.Equal(t, n, q.len())

	count := 0
	for {
		_, ok := q.pop()
		if !ok {
			break
		}
		count++
	}
	require.Equal(t, n, count)
	require.Equal(t, 0, q.len())
}

func TestRuntime_DrainExitCallbacksRunsEveryEntry(t *testing.T) {
	rt := New()
	var ran int
	for i := 0; i < 3; i++ {
		rt.exitQueue.push(exitCallback{fn: func(arg any) { ran++ }})
	}
	rt.DrainExitCallbacks()
	require.Equal(t, 3, ran)
}
