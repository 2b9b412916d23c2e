package thread

import "sync"

// tlsKeyCounter hands out globally unique thread-local-storage keys, the
// same way the teacher's context package hands out unique context keys:
// a monotonically increasing package-level counter rather than any
// string- or pointer-based scheme, so keys never collide across
// independently developed components (spec.md §4.11).
var tlsKeyCounter struct {
	mu   sync.Mutex
	next int
}

// TLSKey is an opaque handle returned by NewTLSKey, used to get or set a
// slot in the calling thread's private storage.
type TLSKey int

// NewTLSKey allocates a fresh, process-wide unique key. free, if non-nil,
// runs on the value left in a thread's slot for this key when that thread
// exits (spec.md §4.11, mirroring pthread_key_create's destructor).
func NewTLSKey(free func(arg any)) TLSKey {
	tlsKeyCounter.mu.Lock()
	defer tlsKeyCounter.mu.Unlock()
	k := tlsKeyCounter.next
	tlsKeyCounter.next++
	localSlotDestructors.mu.Lock()
	localSlotDestructors.byKey[TLSKey(k)] = free
	localSlotDestructors.mu.Unlock()
	return TLSKey(k)
}

var localSlotDestructors = struct {
	mu     sync.Mutex
	byKey  map[TLSKey]func(arg any)
}{byKey: make(map[TLSKey]func(arg any))}

// localSlotTable is a sparse two-level array indexed by TLSKey, avoiding an
// allocation per thread for keys that thread never touches. Mirrors the
// teacher's chunked-storage idiom (ingress.go's fixed-size chunk list)
// applied to a sparse key space instead of a FIFO byte stream.
const localSlotChunkSize = 32

type localSlotTable struct {
	chunks [][]any
}

func (t *localSlotTable) get(k TLSKey) (any, bool) {
	chunk := int(k) / localSlotChunkSize
	idx := int(k) % localSlotChunkSize
	if chunk >= len(t.chunks) || t.chunks[chunk] == nil {
		return nil, false
	}
	v := t.chunks[chunk][idx]
	return v, v != nil
}

func (t *localSlotTable) set(k TLSKey, v any) {
	chunk := int(k) / localSlotChunkSize
	idx := int(k) % localSlotChunkSize
	for chunk >= len(t.chunks) {
		t.chunks = append(t.chunks, nil)
	}
	if t.chunks[chunk] == nil {
		t.chunks[chunk] = make([]any, localSlotChunkSize)
	}
	t.chunks[chunk][idx] = v
}

// each calls fn for every populated slot, used to run destructors on exit.
func (t *localSlotTable) each(fn func(k TLSKey, v any)) {
	for ci, chunk := range t.chunks {
		if chunk == nil {
			continue
		}
		for i, v := range chunk {
			if v != nil {
				fn(TLSKey(ci*localSlotChunkSize+i), v)
			}
		}
	}
}

// GetLocal returns the calling thread's value for key, or nil if unset.
func (rt *Runtime) GetLocal(key TLSKey) any {
	e := rt.Self()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.localSlots == nil {
		return nil
	}
	v, _ := e.localSlots.get(key)
	return v
}

// SetLocal sets the calling thread's value for key.
func (rt *Runtime) SetLocal(key TLSKey, value any) {
	e := rt.Self()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.localSlots == nil {
		e.localSlots = &localSlotTable{}
	}
	e.localSlots.set(key, value)
}

// runLocalDestructors runs every populated TLS slot's destructor during
// exit, in unspecified order (POSIX gives no ordering guarantee either).
func runLocalDestructors(e *Element) {
	if e.localSlots == nil {
		return
	}
	e.localSlots.each(func(k TLSKey, v any) {
		localSlotDestructors.mu.Lock()
		fn := localSlotDestructors.byKey[k]
		localSlotDestructors.mu.Unlock()
		if fn != nil {
			fn(v)
		}
	})
}

// privateMap is the arbitrary key->value store used for per-thread data
// that is private to a single subsystem and does not need a globally
// allocated TLSKey, e.g. diagnostic scratch state.
type privateMap struct {
	mu   sync.Mutex
	vals map[any]privateEntry
}

type privateEntry struct {
	value any
	free  func(arg any)
	keep  bool
}

// SetPrivate stores value for key in the calling thread's private map.
// free, if non-nil, runs on the stored value when the thread exits, unless
// keep is true — spec.md §4.10 step 4's exception for entries "marked
// keep", e.g. values a subsystem wants to survive past this thread's own
// teardown (handed off elsewhere, or owned by whoever set keep).
func (rt *Runtime) SetPrivate(key any, value any, free func(arg any), keep bool) {
	e := rt.Self()
	e.mu.Lock()
	if e.private == nil {
		e.private = &privateMap{vals: make(map[any]privateEntry)}
	}
	p := e.private
	e.mu.Unlock()

	p.mu.Lock()
	p.vals[key] = privateEntry{value: value, free: free, keep: keep}
	p.mu.Unlock()
}

// GetPrivate returns the calling thread's private value for key.
func (rt *Runtime) GetPrivate(key any) (any, bool) {
	e := rt.Self()
	e.mu.Lock()
	p := e.private
	e.mu.Unlock()
	if p == nil {
		return nil, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.vals[key]
	return entry.value, ok
}

// runPrivateDestructors invokes every entry's free routine except those
// marked keep (spec.md §4.10 step 4).
func runPrivateDestructors(e *Element) {
	if e.private == nil {
		return
	}
	e.private.mu.Lock()
	entries := e.private.vals
	e.private.vals = nil
	e.private.mu.Unlock()
	for _, entry := range entries {
		if entry.free != nil && !entry.keep {
			entry.free(entry.value)
		}
	}
}
