package thread

import (
	"runtime"
	"strconv"
	"sync/atomic"
)

// A QID (quasi-thread-id) uniquely identifies a live goroutine at a given
// moment. The original runtime derives this from a stack pointer shifted by
// the page size, since a stack page belongs to at most one live kernel
// thread. Go goroutine stacks move (they grow by copying), so a raw stack
// pointer is not a stable identifier here; instead the QID is the
// runtime-assigned goroutine id, extracted the same way the standard
// `goroutine id` debugging trick does: parse the header line of a
// runtime.Stack dump. This preserves the property the cache relies on
// (unique among live goroutines, cheap enough to compute at every entry
// point) without assuming anything about stack layout. See DESIGN.md for
// the tradeoff against the original pointer-arithmetic approach.
func currentQID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGoroutineID(buf[:n])
}

// parseGoroutineID extracts the numeric id from a "goroutine 123 [running]:"
// header line, as produced by runtime.Stack.
func parseGoroutineID(header []byte) uint64 {
	const prefix = "goroutine "
	if len(header) <= len(prefix) || string(header[:len(prefix)]) != prefix {
		return 0
	}
	rest := header[len(prefix):]
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	id, err := strconv.ParseUint(string(rest[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// qidCacheSize is the number of buckets in the fixed QID cache array. Power
// of two so the hash can mask instead of mod.
const qidCacheSize = 4096

type qidCacheEntry struct {
	qid     atomic.Uint64
	smallID atomic.Int32
}

// qidCache is a fixed array indexed by a hash of the QID, storing the
// small_id last seen for it. Reads require no lock (word-sized atomic
// loads); staleness is tolerated and resolved by comparing the element's
// own recorded qid against the computed one (spec.md §4.1).
type qidCache struct {
	slots [qidCacheSize]qidCacheEntry
}

func hashQID(q uint64) uint32 {
	q ^= q >> 33
	q *= 0xff51afd7ed558ccd
	q ^= q >> 33
	return uint32(q) & (qidCacheSize - 1)
}

func (c *qidCache) lookup(q uint64) (int32, bool) {
	e := &c.slots[hashQID(q)]
	if e.qid.Load() != q {
		return 0, false
	}
	return e.smallID.Load(), true
}

func (c *qidCache) store(q uint64, smallID int32) {
	e := &c.slots[hashQID(q)]
	e.smallID.Store(smallID)
	e.qid.Store(q)
}

// purgeRange invalidates cache entries whose recorded QID falls in
// [low, high] but whose stored small_id differs from keep — the case of a
// stale entry left behind by a defunct thread whose stack page was reused
// by a newly discovered one (spec.md §4.1).
func (c *qidCache) purgeRange(low, high uint64, keep int32) {
	for i := range c.slots {
		e := &c.slots[i]
		q := e.qid.Load()
		if q >= low && q <= high && e.smallID.Load() != keep {
			e.qid.Store(0)
			e.smallID.Store(0)
		}
	}
}
