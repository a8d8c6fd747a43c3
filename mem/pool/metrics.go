package pool

// Metrics is a snapshot of pool statistics.
type Metrics struct {
	Capacity       int     // Size of the backing buffer in bytes
	InUse          int     // Bytes below the cursor, alignment gaps included
	Remaining      int     // Bytes still available to Carve
	GapBytes       int     // Bytes skipped for alignment over the pool's lifetime
	Carves         uint64  // Successful Carve calls
	CarveMisses    uint64  // Carve calls that did not fit
	GiveBacks      uint64  // Successful GiveBack calls
	GiveBackMisses uint64  // GiveBack calls rejected for non-adjacency
	Utilization    float64 // InUse / Capacity, 0 for an empty pool
}

// Utilization returns the ratio of bytes below the cursor to total capacity (0.0 to 1.0).
// Returns 0.0 if the pool has no capacity.
func (p *Pool) Utilization() float64 {
	if len(p.buf) == 0 {
		return 0
	}
	return float64(p.cursor) / float64(len(p.buf))
}

// Metrics returns a snapshot of pool statistics.
func (p *Pool) Metrics() Metrics {
	return Metrics{
		Capacity:       len(p.buf),
		InUse:          p.cursor,
		Remaining:      p.remaining,
		GapBytes:       p.stats.gapBytes,
		Carves:         p.stats.carves,
		CarveMisses:    p.stats.carveMisses,
		GiveBacks:      p.stats.giveBacks,
		GiveBackMisses: p.stats.giveBackMisses,
		Utilization:    p.Utilization(),
	}
}
