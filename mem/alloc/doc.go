// Package alloc provides manually managed, recycling allocators for single
// objects, reference-counted objects and variable-length arrays.
//
// # Overview
//
// Every allocator is an explicit instance parameterized by its element type
// and a set of lifecycle hooks. Released memory is not returned to the Go
// runtime; it is kept on LIFO free lists and handed out again by the next
// allocation of the same size class. An optional pool.Pool supplies fresh
// memory before the Go heap is used.
//
// # Allocators
//
// Objects: free-list allocator for single values
//
//   - New / Free / Copy with Init, Clone and Fini hooks
//   - Preallocate seeds the free list with a contiguous chunk
//
// Refs: reference-counted records built on Objects
//
//   - Use adds a reference, Free drops one and destructs at zero
//   - Copy always yields a distinct record with one reference
//   - Assign, Move and MaybeCopy manage slots and copy-on-write
//
// Arrays: size-classed allocator for slices
//
//   - New, Free, Copy, Resize, EnsureSize, Grow
//   - Append (self-append safe) and Concat
//   - Shrink gives capacity back explicitly; Resize never does
//
// # Usage Example
//
//	type point struct{ X, Y int32 }
//
//	objs := alloc.NewObjects(alloc.Hooks[point]{})
//	p := objs.New(func(p *point) { p.X, p.Y = 1, 2 })
//	objs.Free(p)
//	q := objs.New(nil) // same address as p
//
//	arrays := alloc.NewArrays(alloc.Log2(), alloc.ElemHooks[int]{
//	    Init: func(e *int, idx int) { *e = idx },
//	})
//	xs := arrays.New(3)       // [0 1 2], cap 4
//	xs = arrays.Resize(xs, 6) // [0 1 2 3 4 5], cap 8, relocated
//	arrays.Free(xs)
//
// # Size Classes
//
// A Scale maps a logical length n to an order and an order to a physical
// capacity:
//
//	Linear(S): order = n / S          size = (order + 1) * S
//	Log2():    order = ceil(log2 n)   size = 2^order
//
// Arrays are filed by capacity, so a slice must keep the capacity it was
// allocated with. Passing a resliced array whose capacity is not a bucket
// size panics with ErrSizeMismatch.
//
// # Pools
//
// WithPool makes an allocator carve fresh blocks from a pool.Pool. Pool memory
// is not scanned by the garbage collector, so pool-backed element types must
// be pointer-free; anything else panics with ErrPointerType. A freed block
// that is the pool's most recent carve goes back to the pool, any other one
// goes onto the free list.
//
// # Errors
//
// Contract violations (double free, reference count underflow, foreign
// blocks) panic with an error wrapping one of the sentinel errors of this
// package.
//
// # Thread Safety
//
// Allocators are not thread-safe. Callers must synchronize access externally.
package alloc
