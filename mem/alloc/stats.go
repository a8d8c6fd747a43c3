package alloc

// Stats is a snapshot of allocator counters.
type Stats struct {
	Allocs      uint64 // New and Copy calls
	Frees       uint64 // Blocks released by Free
	Live        int    // Allocations not yet freed
	Reused      uint64 // Blocks served from a free list
	FromPool    uint64 // Blocks carved from the pool
	FromHeap    uint64 // Blocks allocated on the Go heap
	PoolReturns uint64 // Frees that gave their block back to the pool
	Large       uint64 // Array blocks above the tracked orders
	Cached      int    // Blocks currently on free lists

	// Buckets counts array allocations per order. Nil for object allocators.
	Buckets []uint64
}

type allocatorStats struct {
	allocs      uint64
	frees       uint64
	live        int
	reused      uint64
	fromPool    uint64
	fromHeap    uint64
	poolReturns uint64
	large       uint64
	buckets     []uint64
}

func (s *allocatorStats) snapshot(cached int) Stats {
	out := Stats{
		Allocs:      s.allocs,
		Frees:       s.frees,
		Live:        s.live,
		Reused:      s.reused,
		FromPool:    s.fromPool,
		FromHeap:    s.fromHeap,
		PoolReturns: s.poolReturns,
		Large:       s.large,
		Cached:      cached,
	}
	if s.buckets != nil {
		out.Buckets = append([]uint64(nil), s.buckets...)
	}
	return out
}

// release records a free, panicking when there is nothing live to free.
func (s *allocatorStats) release(what string) {
	if s.live <= 0 {
		violation(ErrDoubleFree, "%s", what)
	}
	s.live--
	s.frees++
}
