package alloc

import (
	"log/slog"
	"os"

	"github.com/joshuapare/slabkit/internal/logger"
	"github.com/joshuapare/slabkit/mem/pool"
)

// DefaultMaxBuckets is the number of tracked orders when WithMaxBuckets is not given.
const DefaultMaxBuckets = 32

// Set SLABKIT_LOG_ALLOC=1 to route allocator debug events to the global logger.
var logAlloc = os.Getenv("SLABKIT_LOG_ALLOC") != ""

type options struct {
	pool       *pool.Pool
	maxBuckets int
	log        *slog.Logger
}

// Option configures an allocator.
type Option func(*options)

// WithPool makes the allocator carve fresh blocks from p before falling back
// to the Go heap. The element type must be pointer-free.
func WithPool(p *pool.Pool) Option {
	return func(o *options) { o.pool = p }
}

// WithMaxBuckets sets the number of recycled orders. Blocks of higher orders
// are left to the garbage collector when freed.
func WithMaxBuckets(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBuckets = n
		}
	}
}

// WithLogger routes debug events (pool fallback, large blocks, trims) to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{maxBuckets: DefaultMaxBuckets}
	if logAlloc {
		o.log = logger.L
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
