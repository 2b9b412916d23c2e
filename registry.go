package thread

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// registry holds the two parallel fixed-length arrays described in
// spec.md §4.2: the element pointer and the native (goroutine) id, both
// indexed by small_id. An insertion mutex serializes element creation; it
// is dropped before any step that might itself re-enter the runtime.
type registry struct {
	mu       sync.Mutex // insertion mutex
	elements []*Element
	qids     []uint64

	next int32 // next small_id to hand out by atomic-style increment under mu

	cache qidCache

	// reusable holds small_ids whose element is detached-and-exited and
	// past its reclaim hold time, ready to be handed back out. Mirrors the
	// ring-buffer scavenge idiom the teacher's registry.go uses for
	// garbage-collecting dead promises, repurposed here to garbage-collect
	// dead thread elements instead of settled promises.
	reusable []int32

	// highWater bounds how many small_ids scavenge will move into reusable
	// in one pass (spec.md §4.2, "the runtime maintains an upper bound on
	// allocated reusable slots"). Elements past the bound stay marked
	// reusable and are picked up on a later pass once the freelist drains.
	highWater int

	// backoff bounds the number of callers concurrently waiting for a
	// reusable slot once the small-id space is exhausted (spec.md §4.2,
	// "waits, with backoff, for a reusable slot instead of failing").
	backoff *semaphore.Weighted
}

// newRegistry seeds small_id 0 as the immortal main element, bound to the
// goroutine that constructs the Runtime (there being no portable way to
// identify "the process's original thread" from inside Go other than
// treating whichever goroutine brings the registry to life as it).
//
// highWater (spec.md §4.2, "the runtime maintains an upper bound on
// allocated reusable slots") is derived from nMax rather than taken as a
// parameter, since every caller already knows nMax. WithMaxThreads is the
// only way to change it (below defaultReusableHighWater it equals nMax);
// the options struct's reusableHighWater field is not consulted.
func newRegistry(nMax int) *registry {
	r := &registry{
		elements:  make([]*Element, nMax),
		qids:      make([]uint64, nMax),
		highWater: registryHighWater(nMax),
		backoff:   semaphore.NewWeighted(int64(maxReusableWaiters)),
	}
	main := newElement(0, KindMain)
	main.cancelable = false
	q := currentQID()
	main.qid = q
	main.lastQID = q
	r.elements[0] = main
	r.next = 1
	r.cache.store(q, 0)
	return r
}

const maxReusableWaiters = 64

// registryHighWater bounds how many reusable small_ids scavenge accumulates
// in one pass, scaled to nMax rather than fixed, so a small private Runtime
// (tests, embedders with WithMaxThreads) doesn't inherit the process
// default's 1024-slot freelist ceiling.
func registryHighWater(nMax int) int {
	if nMax < defaultReusableHighWater {
		return nMax
	}
	return defaultReusableHighWater
}

// allocate returns a fresh or reclaimed element for small_id assignment.
// Called from the discovery engine or Spawn; it takes r.mu itself, so the
// caller must not hold it.
func (r *registry) allocate(kind ElementKind) (*Element, error) {
	r.mu.Lock()
	if len(r.reusable) > 0 {
		id := r.reusable[len(r.reusable)-1]
		r.reusable = r.reusable[:len(r.reusable)-1]
		e := newElement(id, kind)
		r.elements[id] = e
		r.mu.Unlock()
		return e, nil
	}
	if int(r.next) < len(r.elements) {
		id := r.next
		r.next++
		e := newElement(id, kind)
		r.elements[id] = e
		r.mu.Unlock()
		return e, nil
	}
	r.mu.Unlock()

	// Small-id space exhausted: wait with backoff for a reusable slot
	// instead of failing outright.
	ctx, cancel := context.WithTimeout(context.Background(), reusableWaitBound)
	defer cancel()
	if err := r.backoff.Acquire(ctx, 1); err != nil {
		return nil, ErrResourceExhausted
	}
	defer r.backoff.Release(1)

	deadline := time.Now().Add(reusableWaitBound)
	for time.Now().Before(deadline) {
		r.scavenge()
		r.mu.Lock()
		if len(r.reusable) > 0 {
			id := r.reusable[len(r.reusable)-1]
			r.reusable = r.reusable[:len(r.reusable)-1]
			e := newElement(id, kind)
			r.elements[id] = e
			r.mu.Unlock()
			return e, nil
		}
		r.mu.Unlock()
		time.Sleep(reusablePollInterval)
	}
	return nil, ErrResourceExhausted
}

// reusableWaitBound and reusablePollInterval are vars, not consts, so
// tests can shrink them instead of waiting out the real bound.
var (
	reusableWaitBound    = 2 * time.Second
	reusablePollInterval = 5 * time.Millisecond
)

// scavenge moves the small_ids of elements marked reusable (detached and
// exited, or joined) and past their reclaim hold time into the reusable
// freelist. It is the thread-element analogue of the teacher's
// promise-registry scavenge: instead of checking a weak pointer for
// GC'd/settled promises, it checks the reusable flag and the hold time. The
// slot is cleared, so the old *Element is dropped from the registry and
// allocate builds a new one for the recycled small_id.
func (r *registry) scavenge() {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := int32(1); int(id) < len(r.elements) && len(r.reusable) < r.highWater; id++ {
		e := r.elements[id]
		if e == nil {
			continue
		}
		e.mu.Lock()
		ready := e.reusable && now.After(e.reclaimAfter)
		e.mu.Unlock()
		if ready {
			r.reusable = append(r.reusable, id)
			r.elements[id] = nil
		}
	}
}

// byID returns the element for small_id, or nil if the slot is empty.
func (r *registry) byID(id int32) *Element {
	if id < 0 || int(id) >= len(r.elements) {
		return nil
	}
	r.mu.Lock()
	e := r.elements[id]
	r.mu.Unlock()
	return e
}

// scanByQID performs the fallback linear scan by goroutine id used when the
// QID cache misses (spec.md §4.1).
func (r *registry) scanByQID(q uint64) *Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.elements {
		if e == nil {
			continue
		}
		e.mu.Lock()
		match := !e.exitStarted && (e.qid == q || (e.Kind == KindDiscovered && q >= e.rangeLow && q <= e.rangeHigh))
		e.mu.Unlock()
		if match {
			return e
		}
	}
	return nil
}

// markReusable flags an exited element (detached, or just joined) as
// eligible for reclaim after the given hold time, giving the goroutine's own
// exit path time to finish (spec.md §4.10 step 7).
func (r *registry) markReusable(e *Element, hold time.Duration) {
	e.mu.Lock()
	e.reusable = true
	e.reclaimAfter = time.Now().Add(hold)
	e.mu.Unlock()
}
