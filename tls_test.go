package thread

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTLS_SetGetRoundTrip(t *testing.T) {
	rt := New()
	key := NewTLSKey(nil)
	require.Nil(t, rt.GetLocal(key))

	rt.SetLocal(key, 42)
	require.Equal(t, 42, rt.GetLocal(key))
}

func TestTLS_KeysAreDistinctAcrossChunkBoundary(t *testing.T) {
	rt := New()
	keys := make([]TLSKey, localSlotChunkSize+5)
	for i := range keys {
		keys[i] = NewTLSKey(nil)
		rt.SetLocal(keys[i], i)
	}
	for i, k := range keys {
		require.Equal(t, i, rt.GetLocal(k))
	}
}

func TestTLS_DestructorRunsOnExit(t *testing.T) {
	rt := New()
	freed := make(chan any, 1)
	key := NewTLSKey(func(arg any) { freed <- arg })

	id, err := rt.Spawn(func(arg any) any {
		rt.SetLocal(key, "payload")
		return nil
	}, nil, 0, 0, nil)
	require.NoError(t, err)
	_, err = rt.Join(id, false)
	require.NoError(t, err)

	select {
	case v := <-freed:
		require.Equal(t, "payload", v)
	default:
		t.Fatal("destructor did not run")
	}
}

func TestPrivateMap_SetGetAndDestructor(t *testing.T) {
	rt := New()
	freed := make(chan any, 1)

	id, err := rt.Spawn(func(arg any) any {
		rt.SetPrivate("k", "v", func(arg any) { freed <- arg }, false)
		v, ok := rt.GetPrivate("k")
		if !ok || v != "v" {
			panic("private get mismatch")
		}
		return nil
	}, nil, 0, 0, nil)
	require.NoError(t, err)
	_, err = rt.Join(id, false)
	require.NoError(t, err)

	select {
	case v := <-freed:
		require.Equal(t, "v", v)
	default:
		t.Fatal("private destructor did not run")
	}
}

func TestPrivateMap_KeepSkipsDestructor(t *testing.T) {
	rt := New()
	freed := make(chan any, 1)

	id, err := rt.Spawn(func(arg any) any {
		rt.SetPrivate("k", "v", func(arg any) { freed <- arg }, true)
		return nil
	}, nil, 0, 0, nil)
	require.NoError(t, err)
	_, err = rt.Join(id, false)
	require.NoError(t, err)

	select {
	case v := <-freed:
		t.Fatalf("destructor ran for keep-marked entry: %v", v)
	default:
	}
}
