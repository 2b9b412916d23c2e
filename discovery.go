package thread

// get_element is the hot path described in spec.md §4.3. It is exposed as
// Self(), and is called internally by every public entry point before it
// touches an Element.
func (rt *Runtime) Self() *Element {
	q := currentQID()

	if id, ok := rt.reg.cache.lookup(q); ok {
		if e := rt.reg.byID(id); e != nil {
			e.mu.Lock()
			hit := e.lastQID == q && !e.exitStarted
			e.mu.Unlock()
			if hit {
				return e
			}
		}
	}

	if e := rt.reg.scanByQID(q); e != nil {
		e.mu.Lock()
		extended := false
		if e.Kind == KindDiscovered {
			if e.rangeLow == 0 || q < e.rangeLow {
				e.rangeLow = q
				extended = true
			}
			if q > e.rangeHigh {
				e.rangeHigh = q
				extended = true
			}
		}
		low, high, id := e.rangeLow, e.rangeHigh, e.SmallID
		e.lastQID = q
		e.mu.Unlock()
		if extended {
			// A discovered thread's observed range just grew; drop any
			// cache entries in that range that were stamped with a
			// different small_id before this element claimed it
			// (spec.md §4.1).
			rt.reg.cache.purgeRange(low, high, id)
		}
		rt.reg.cache.store(q, e.SmallID)
		return e
	}

	return rt.discoverNew(q)
}

// discoverNew allocates a new element for a goroutine the runtime has never
// seen before: it is marked discovered, non-cancelable, and its QID bounds
// start out as the single observed point (spec.md §4.3 step 4).
func (rt *Runtime) discoverNew(q uint64) *Element {
	e, err := rt.reg.allocate(KindDiscovered)
	if err != nil {
		// Resource exhaustion on the discovery path is unrecoverable for
		// the calling goroutine; every instrumented primitive assumes an
		// element exists. Mirrors the teacher's policy of treating
		// allocation failure on a hot internal path as fatal.
		panic(WrapError("thread: discovery failed", err))
	}
	e.mu.Lock()
	e.qid = q
	e.lastQID = q
	e.rangeLow = q
	e.rangeHigh = q
	e.cancelable = false
	e.mu.Unlock()

	rt.reg.cache.store(q, e.SmallID)
	rt.logger().Logf(LevelDebug, "thread: discovered goroutine as small_id=%d", e.SmallID)
	return e
}
