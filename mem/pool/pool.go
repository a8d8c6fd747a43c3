package pool

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/slabkit/internal/buf"
	"github.com/joshuapare/slabkit/internal/mmfile"
)

// Pool is a bump-pointer region allocator over a fixed buffer.
//
// Invariant: cursor+remaining == len(buf). Alignment gaps sit below the
// cursor and are never handed back.
type Pool struct {
	buf       []byte
	base      uintptr
	cursor    int
	remaining int
	release   func() error
	stats     poolStats
}

type poolStats struct {
	carves         uint64
	carveMisses    uint64
	giveBacks      uint64
	giveBackMisses uint64
	gapBytes       int
}

// New creates a pool carving from b. The caller keeps ownership of b and must
// not use it while the pool is live.
func New(b []byte) *Pool {
	p := &Pool{buf: b, remaining: len(b)}
	if len(b) > 0 {
		p.base = uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	}
	return p
}

// NewSize creates a pool over a fresh n-byte heap buffer.
func NewSize(n int) *Pool {
	if n < 0 {
		n = 0
	}
	return New(make([]byte, n))
}

// NewMapped creates a pool over an n-byte anonymous memory mapping.
// Close must be called to release the mapping.
func NewMapped(n int) (*Pool, error) {
	b, release, err := mmfile.Anon(n)
	if err != nil {
		return nil, fmt.Errorf("pool: map %d bytes: %w", n, err)
	}
	p := New(b)
	p.release = release
	return p, nil
}

// Close releases mapped backing memory. Pools built with New or NewSize have
// nothing to release. The pool is empty afterwards.
func (p *Pool) Close() error {
	var err error
	if p.release != nil {
		err = p.release()
		p.release = nil
	}
	p.buf = nil
	p.base = 0
	p.cursor = 0
	p.remaining = 0
	return err
}

// Carve reserves need bytes whose absolute address is a multiple of align.
// It returns the offset of the region, or ok == false when the aligned region
// does not fit in the remaining space. A miss leaves the pool untouched.
func (p *Pool) Carve(need, align int) (off int, ok bool) {
	if need < 0 {
		p.stats.carveMisses++
		return 0, false
	}
	if align < 1 {
		align = 1
	}
	addr := int(p.base) + p.cursor
	start, fits := buf.AlignUp(addr, align)
	if !fits {
		p.stats.carveMisses++
		return 0, false
	}
	gap := start - addr
	total, fits := buf.AddOverflowSafe(gap, need)
	if !fits || total > p.remaining {
		p.stats.carveMisses++
		return 0, false
	}
	off = p.cursor + gap
	p.cursor += total
	p.remaining -= total
	p.stats.carves++
	p.stats.gapBytes += gap
	return off, true
}

// GiveBack returns the size-byte region at off to the pool. It succeeds only
// when off+size equals the cursor, i.e. the region is the latest carve still
// adjacent to the free space. The reclaimed bytes serve carves of any size.
func (p *Pool) GiveBack(off, size int) bool {
	if size < 0 || off < 0 || off+size != p.cursor {
		p.stats.giveBackMisses++
		return false
	}
	p.cursor = off
	p.remaining += size
	p.stats.giveBacks++
	return true
}

// Pointer returns the address of the byte at off.
func (p *Pool) Pointer(off int) unsafe.Pointer {
	if off < 0 || off >= len(p.buf) {
		panic(fmt.Sprintf("pool: offset %d out of range [0,%d)", off, len(p.buf)))
	}
	return unsafe.Pointer(&p.buf[off])
}

// Offset reports the offset of ptr within the pool buffer, or ok == false when
// ptr does not point into this pool.
func (p *Pool) Offset(ptr unsafe.Pointer) (int, bool) {
	if len(p.buf) == 0 || ptr == nil {
		return 0, false
	}
	addr := uintptr(ptr)
	if addr < p.base || addr >= p.base+uintptr(len(p.buf)) {
		return 0, false
	}
	return int(addr - p.base), true
}

// Bytes returns the n-byte region at off.
func (p *Pool) Bytes(off, n int) ([]byte, bool) {
	return buf.Slice(p.buf, off, n)
}

// Cursor returns the offset of the next uncarved byte.
func (p *Pool) Cursor() int { return p.cursor }

// Remaining returns the number of uncarved bytes.
func (p *Pool) Remaining() int { return p.remaining }

// Len returns the size of the backing buffer.
func (p *Pool) Len() int { return len(p.buf) }
