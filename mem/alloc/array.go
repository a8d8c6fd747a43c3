package alloc

import (
	"log/slog"
	"unsafe"

	"github.com/joshuapare/slabkit/internal/buf"
	"github.com/joshuapare/slabkit/mem/pool"
)

// ElemHooks are the per-element callbacks of an array allocator.
// Any hook may be nil.
type ElemHooks[T any] struct {
	// Init constructs a zeroed element at index idx.
	Init func(elem *T, idx int)
	// Clone deep-copies owned state after an element was copied by value
	// (Copy, Append, Concat, Unshare).
	Clone func(elem *T)
	// Adjust fixes up an element moved from src to dst by a reallocation.
	Adjust func(dst, src *T)
	// Fini destructs an element.
	Fini func(elem *T)
}

// Arrays allocates variable-length arrays of T in size-classed blocks.
//
// An array is an ordinary slice: len is the logical length, cap is the
// physical block size Scale.Capacity(len) chosen at allocation. Released
// blocks are filed by cap into per-order LIFO free lists. Orders at or above
// the configured maximum are allocated exactly once and left to the garbage
// collector when freed.
//
// Growth may relocate an array; callers must always continue with the slice
// returned by a growing call.
type Arrays[T any] struct {
	scale      Scale
	hooks      ElemHooks[T]
	free       [][][]T
	freed      map[*T]struct{} // first elements of cached blocks; nil for zero-size T
	pool       *pool.Pool
	elemSize   int
	elemAlign  int
	maxBuckets int
	log        *slog.Logger
	stats      allocatorStats
}

// NewArrays creates an array allocator bucketing sizes with scale.
func NewArrays[T any](scale Scale, hooks ElemHooks[T], opts ...Option) *Arrays[T] {
	o := buildOptions(opts)
	checkPoolable[T](&o)
	var zero T
	a := &Arrays[T]{
		scale:      scale,
		hooks:      hooks,
		free:       make([][][]T, o.maxBuckets),
		pool:       o.pool,
		elemSize:   int(unsafe.Sizeof(zero)),
		elemAlign:  int(unsafe.Alignof(zero)),
		maxBuckets: o.maxBuckets,
		log:        o.log,
	}
	a.stats.buckets = make([]uint64, o.maxBuckets)
	if a.elemSize == 0 {
		a.pool = nil
	} else {
		a.freed = make(map[*T]struct{})
	}
	return a
}

// Scale returns the bucket function of the allocator.
func (a *Arrays[T]) Scale() Scale { return a.scale }

// New returns an array of n constructed elements. New(0) is nil.
func (a *Arrays[T]) New(n int) []T {
	if n <= 0 {
		return nil
	}
	arr := a.acquire(n)
	a.Construct(arr, 0)
	a.stats.allocs++
	a.stats.live++
	return arr
}

// Free destructs every element of arr and recycles its block.
// Freeing a nil array is a no-op.
func (a *Arrays[T]) Free(arr []T) {
	if cap(arr) == 0 {
		return
	}
	a.checkBlock(arr)
	a.stats.release("free array")
	a.Destruct(arr)
	a.recycle(arr)
}

// Copy returns a new array holding a clone of arr's elements.
func (a *Arrays[T]) Copy(arr []T) []T {
	if len(arr) == 0 {
		return nil
	}
	dst := a.acquire(len(arr))
	copy(dst, arr)
	a.cloneAll(dst)
	a.stats.allocs++
	a.stats.live++
	return dst
}

// Unshare clones every element of arr in place, so that arr owns its own
// copy of any state it shared with the array it was copied from.
func (a *Arrays[T]) Unshare(arr []T) {
	a.cloneAll(arr)
}

// Resize sets the logical length of arr to n and returns the resulting array.
//
// Elements at and beyond n are destructed first. The block is reallocated only
// when n exceeds its capacity; the prefix is then moved, passed through the
// Adjust hook and the old block recycled. Shrinking keeps the block. New slots
// are constructed with their index. Resize to 0 frees the array and returns nil.
func (a *Arrays[T]) Resize(arr []T, n int) []T {
	return a.resize(arr, n, true)
}

// EnsureSize returns arr unchanged when it already holds req elements, else
// resizes it to req+reserve.
func (a *Arrays[T]) EnsureSize(arr []T, req, reserve int) []T {
	if len(arr) >= req {
		return arr
	}
	return a.Resize(arr, req+reserve)
}

// Grow extends *arr by incr constructed elements and returns the new tail.
// Growing a nil array is equivalent to New(incr).
func (a *Arrays[T]) Grow(arr *[]T, incr int) []T {
	old := len(*arr)
	*arr = a.Resize(*arr, old+incr)
	return (*arr)[old:]
}

// Shrink moves arr into the smallest block that holds its length. It is the
// only operation that gives physical capacity back.
func (a *Arrays[T]) Shrink(arr []T) []T {
	if len(arr) == 0 {
		if cap(arr) > 0 {
			a.Free(arr)
		}
		return nil
	}
	if cap(arr) <= a.scale.Capacity(len(arr)) {
		return arr
	}
	a.checkBlock(arr)
	return a.relocate(arr, len(arr))
}

// Append copies src to the end of *dest, running the Clone hook on each
// appended element, and returns the appended tail. src may be *dest itself.
func (a *Arrays[T]) Append(dest *[]T, src []T) []T {
	n := len(src)
	if n == 0 {
		return nil
	}
	self := len(*dest) > 0 && unsafe.SliceData(src) == unsafe.SliceData(*dest)
	old := len(*dest)
	*dest = a.resize(*dest, old+n, false)
	if self {
		// Growth may have moved the source along with the destination.
		src = (*dest)[:n]
	}
	tail := (*dest)[old:]
	copy(tail, src)
	a.cloneAll(tail)
	return tail
}

// Concat returns a new array holding clones of x followed by clones of y.
// When either operand is empty the result is a Copy of the other.
func (a *Arrays[T]) Concat(x, y []T) []T {
	if len(x) == 0 {
		return a.Copy(y)
	}
	if len(y) == 0 {
		return a.Copy(x)
	}
	n, ok := buf.AddOverflowSafe(len(x), len(y))
	if !ok {
		panic("alloc: concat length overflows int")
	}
	dst := a.acquire(n)
	copy(dst, x)
	copy(dst[len(x):], y)
	a.cloneAll(dst)
	a.stats.allocs++
	a.stats.live++
	return dst
}

// Construct zeroes elems and runs the Init hook on each, passing base+i as
// the element index.
func (a *Arrays[T]) Construct(elems []T, base int) {
	clear(elems)
	if a.hooks.Init == nil {
		return
	}
	for i := range elems {
		a.hooks.Init(&elems[i], base+i)
	}
}

// Destruct runs the Fini hook on each element.
func (a *Arrays[T]) Destruct(elems []T) {
	if a.hooks.Fini == nil {
		return
	}
	for i := range elems {
		a.hooks.Fini(&elems[i])
	}
}

// Trim drops every cached free block.
func (a *Arrays[T]) Trim() {
	cached := a.cached()
	for i := range a.free {
		a.free[i] = nil
	}
	clear(a.freed)
	if a.log != nil && cached > 0 {
		a.log.Debug("alloc: trim arrays", "cached", cached)
	}
}

// Live returns the number of arrays allocated and not yet freed.
func (a *Arrays[T]) Live() int { return a.stats.live }

// Stats returns a snapshot of allocator counters.
func (a *Arrays[T]) Stats() Stats { return a.stats.snapshot(a.cached()) }

func (a *Arrays[T]) cached() int {
	n := 0
	for _, blocks := range a.free {
		n += len(blocks)
	}
	return n
}

func (a *Arrays[T]) cloneAll(elems []T) {
	if a.hooks.Clone == nil {
		return
	}
	for i := range elems {
		a.hooks.Clone(&elems[i])
	}
}

func (a *Arrays[T]) resize(arr []T, n int, construct bool) []T {
	if n < 0 {
		n = 0
	}
	old := len(arr)
	if cap(arr) == 0 {
		if n == 0 {
			return nil
		}
		arr = a.acquire(n)
		a.stats.allocs++
		a.stats.live++
		if construct {
			a.Construct(arr, 0)
		}
		return arr
	}
	a.checkBlock(arr)
	if n < old {
		a.Destruct(arr[n:old])
		clear(arr[n:old])
	}
	if n == 0 {
		a.stats.release("resize array to zero")
		a.recycle(arr)
		return nil
	}
	if n > cap(arr) {
		arr = a.relocate(arr, n)
	} else {
		arr = arr[:n]
	}
	if construct && n > old {
		a.Construct(arr[old:n], old)
	}
	return arr
}

// relocate moves the first min(len(arr), n) elements of arr into a fresh
// block for n elements and recycles the old block.
func (a *Arrays[T]) relocate(arr []T, n int) []T {
	fresh := a.acquire(n)
	kept := copy(fresh, arr)
	if a.hooks.Adjust != nil {
		for i := range kept {
			a.hooks.Adjust(&fresh[i], &arr[i])
		}
	}
	a.recycle(arr)
	return fresh
}

// checkBlock panics when arr's capacity is not a block size of this allocator
// or when arr was already released.
func (a *Arrays[T]) checkBlock(arr []T) {
	if _, ok := a.scale.OrderOfSize(cap(arr)); !ok {
		violation(ErrSizeMismatch, "array len=%d cap=%d scale=%s", len(arr), cap(arr), a.scale)
	}
	p := unsafe.SliceData(arr)
	if _, ok := a.freed[p]; ok || givenBack(a.pool, unsafe.Pointer(p)) {
		violation(ErrDoubleFree, "array %p cap=%d already released", p, cap(arr))
	}
}

// acquire returns an uninitialized (zeroed) block with room for n elements,
// resliced to length n.
func (a *Arrays[T]) acquire(n int) []T {
	order := a.scale.Order(n)
	size := a.scale.Size(order)
	if order >= a.maxBuckets {
		a.stats.large++
		a.stats.fromHeap++
		if a.log != nil {
			a.log.Debug("alloc: large array", "len", n, "cap", size, "order", order)
		}
		return make([]T, n, size)
	}
	a.stats.buckets[order]++
	if blocks := a.free[order]; len(blocks) > 0 {
		blk := blocks[len(blocks)-1]
		blocks[len(blocks)-1] = nil
		a.free[order] = blocks[:len(blocks)-1]
		delete(a.freed, unsafe.SliceData(blk))
		a.stats.reused++
		return blk[:n]
	}
	if blk := a.carve(size); blk != nil {
		a.stats.fromPool++
		return blk[:n]
	}
	a.stats.fromHeap++
	return make([]T, n, size)
}

func (a *Arrays[T]) carve(size int) []T {
	if a.pool == nil {
		return nil
	}
	nbytes, err := buf.BlockBytes(size, a.elemSize)
	if err != nil {
		return nil
	}
	off, ok := a.pool.Carve(nbytes, a.elemAlign)
	if !ok {
		if a.log != nil {
			a.log.Debug("alloc: pool exhausted, using heap", "bytes", nbytes)
		}
		return nil
	}
	blk := unsafe.Slice((*T)(a.pool.Pointer(off)), size)
	clear(blk)
	return blk
}

// recycle files the block behind arr on its free list, or gives it back to
// the pool when it is the pool's most recent carve. Large blocks are dropped.
func (a *Arrays[T]) recycle(arr []T) {
	blk := arr[:cap(arr)]
	clear(blk)
	order, _ := a.scale.OrderOfSize(len(blk))
	if order >= a.maxBuckets {
		return
	}
	if a.pool != nil {
		if off, ok := a.pool.Offset(unsafe.Pointer(unsafe.SliceData(blk))); ok &&
			a.pool.GiveBack(off, len(blk)*a.elemSize) {
			a.stats.poolReturns++
			return
		}
	}
	a.free[order] = append(a.free[order], blk)
	if a.freed != nil {
		a.freed[unsafe.SliceData(blk)] = struct{}{}
	}
}
