package alloc

import (
	"log/slog"
	"unsafe"

	"github.com/joshuapare/slabkit/mem/pool"
)

// Hooks are the per-type lifecycle callbacks of an object allocator.
// Any hook may be nil.
type Hooks[T any] struct {
	// Init runs on every freshly zeroed object before the per-call initializer.
	Init func(obj *T)
	// Clone runs on the destination of Copy after the value copy, to deep-copy
	// owned state.
	Clone func(obj *T)
	// Fini runs when an object is released.
	Fini func(obj *T)
}

// Objects is a free-list allocator for single values of type T.
//
// Released objects are kept on a LIFO free list and handed out again by New
// before any fresh memory is obtained. Fresh objects come from the configured
// pool when one is set and has room, else from the Go heap.
type Objects[T any] struct {
	hooks Hooks[T]
	free  []*T
	freed map[*T]struct{} // members of free; nil for zero-size T
	pool  *pool.Pool
	size  int
	align int
	log   *slog.Logger
	stats allocatorStats
}

// NewObjects creates an allocator for T.
func NewObjects[T any](hooks Hooks[T], opts ...Option) *Objects[T] {
	o := buildOptions(opts)
	checkPoolable[T](&o)
	size, align := layoutOf[T]()
	a := &Objects[T]{
		hooks: hooks,
		pool:  o.pool,
		size:  size,
		align: align,
		log:   o.log,
	}
	if size == 0 {
		a.pool = nil
	} else {
		a.freed = make(map[*T]struct{})
	}
	return a
}

// New returns a zeroed, constructed object. The Init hook runs first, then
// init when non-nil.
func (a *Objects[T]) New(init func(obj *T)) *T {
	obj := a.acquire()
	if a.hooks.Init != nil {
		a.hooks.Init(obj)
	}
	if init != nil {
		init(obj)
	}
	a.stats.allocs++
	a.stats.live++
	return obj
}

// Copy returns a new object holding a copy of *obj with the Clone hook
// applied. The result never aliases obj. Copy of nil is nil.
func (a *Objects[T]) Copy(obj *T) *T {
	if obj == nil {
		return nil
	}
	dst := a.acquire()
	*dst = *obj
	if a.hooks.Clone != nil {
		a.hooks.Clone(dst)
	}
	a.stats.allocs++
	a.stats.live++
	return dst
}

// Free runs the Fini hook and recycles obj. Freeing nil is a no-op.
// obj must not be used afterwards.
func (a *Objects[T]) Free(obj *T) {
	if obj == nil {
		return
	}
	if _, ok := a.freed[obj]; ok || givenBack(a.pool, unsafe.Pointer(obj)) {
		violation(ErrDoubleFree, "free object %p", obj)
	}
	a.stats.release("free object")
	if a.hooks.Fini != nil {
		a.hooks.Fini(obj)
	}
	a.recycle(obj)
}

// Preallocate seeds the free list with n contiguous objects, so that the next
// n calls to New return consecutive addresses before any previously freed
// object is reused.
func (a *Objects[T]) Preallocate(n int) {
	if n <= 0 {
		return
	}
	chunk := make([]T, n)
	for i := n - 1; i >= 0; i-- {
		a.push(&chunk[i])
	}
	if a.log != nil {
		a.log.Debug("alloc: preallocated objects", "count", n, "bytes", n*a.size)
	}
}

// Trim drops every cached free object.
func (a *Objects[T]) Trim() {
	if a.log != nil && len(a.free) > 0 {
		a.log.Debug("alloc: trim objects", "cached", len(a.free))
	}
	clear(a.free)
	a.free = nil
	clear(a.freed)
}

// Live returns the number of objects allocated and not yet freed.
func (a *Objects[T]) Live() int { return a.stats.live }

// Stats returns a snapshot of allocator counters.
func (a *Objects[T]) Stats() Stats { return a.stats.snapshot(len(a.free)) }

func (a *Objects[T]) acquire() *T {
	if n := len(a.free); n > 0 {
		obj := a.free[n-1]
		a.free[n-1] = nil
		a.free = a.free[:n-1]
		delete(a.freed, obj)
		var zero T
		*obj = zero
		a.stats.reused++
		return obj
	}
	if a.pool != nil {
		if off, ok := a.pool.Carve(a.size, a.align); ok {
			obj := (*T)(a.pool.Pointer(off))
			var zero T
			*obj = zero
			a.stats.fromPool++
			return obj
		}
		if a.log != nil {
			a.log.Debug("alloc: pool exhausted, using heap", "size", a.size)
		}
	}
	a.stats.fromHeap++
	return new(T)
}

func (a *Objects[T]) recycle(obj *T) {
	if a.pool != nil {
		if off, ok := a.pool.Offset(unsafe.Pointer(obj)); ok && a.pool.GiveBack(off, a.size) {
			a.stats.poolReturns++
			return
		}
	}
	var zero T
	*obj = zero
	a.push(obj)
}

func (a *Objects[T]) push(obj *T) {
	a.free = append(a.free, obj)
	if a.freed != nil {
		a.freed[obj] = struct{}{}
	}
}

// givenBack reports whether ptr lies in the uncarved part of p, which means
// its block was already returned to the pool.
func givenBack(p *pool.Pool, ptr unsafe.Pointer) bool {
	if p == nil {
		return false
	}
	off, ok := p.Offset(ptr)
	return ok && off >= p.Cursor()
}
