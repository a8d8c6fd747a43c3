// Package queue implements a double-ended queue over an alloc.Arrays
// allocator.
//
// The queue is linear, not circular: elements live in [bottom, top) of the
// backing array. Enqueue writes at top and Dequeue reads at bottom. When the
// back is full the live range is first compacted down to offset 0, and the
// array grows only when there is no consumed space to reclaim. EnqueueFront
// shifts the live range to the end of the array to open room at the front.
//
// Slots outside [bottom, top) always hold constructed values, so the
// allocator's Fini hook may run on every slot when the queue is freed.
package queue

import (
	"fmt"

	"github.com/joshuapare/slabkit/mem/alloc"
)

// Queue is a double-ended queue of T.
type Queue[T any] struct {
	arrays  *alloc.Arrays[T]
	elts    []T
	top     int
	bottom  int
	reserve int
}

// Option configures a Queue.
type Option func(*options)

type options struct {
	reserve int
}

// WithReserve sets the number of extra slots added whenever the queue grows.
func WithReserve(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.reserve = n
		}
	}
}

// New returns an empty queue with n preallocated slots.
func New[T any](arrays *alloc.Arrays[T], n int, opts ...Option) *Queue[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Queue[T]{
		arrays:  arrays,
		elts:    arrays.New(n),
		reserve: o.reserve,
	}
}

// Enqueue appends v at the back.
func (q *Queue[T]) Enqueue(v T) {
	if q.top == len(q.elts) {
		if q.bottom > 0 {
			q.compact()
		} else {
			q.grow()
		}
	}
	q.elts[q.top] = v
	q.top++
}

// EnqueueFront inserts v at the front.
func (q *Queue[T]) EnqueueFront(v T) {
	if q.top == q.bottom {
		if q.top == len(q.elts) {
			q.top, q.bottom = 0, 0
			if len(q.elts) == 0 {
				q.grow()
			}
		}
		q.elts[q.bottom] = v
		q.top++
		return
	}
	if q.bottom == 0 {
		if q.top == len(q.elts) {
			q.grow()
		}
		q.shiftToEnd()
	}
	q.bottom--
	q.elts[q.bottom] = v
}

// Dequeue removes and returns the front element. It panics with
// alloc.ErrEmpty on an empty queue.
func (q *Queue[T]) Dequeue() T {
	if q.top == q.bottom {
		panic(fmt.Errorf("queue: dequeue: %w", alloc.ErrEmpty))
	}
	i := q.bottom
	v := q.elts[i]
	q.arrays.Construct(q.elts[i:i+1], i)
	q.bottom++
	return v
}

// DequeueBack removes and returns the back element. It panics with
// alloc.ErrEmpty on an empty queue.
func (q *Queue[T]) DequeueBack() T {
	if q.top == q.bottom {
		panic(fmt.Errorf("queue: dequeue back: %w", alloc.ErrEmpty))
	}
	q.top--
	i := q.top
	v := q.elts[i]
	q.arrays.Construct(q.elts[i:i+1], i)
	return v
}

// Front returns the front slot, or nil when the queue is empty.
func (q *Queue[T]) Front() *T {
	if q.top == q.bottom {
		return nil
	}
	return &q.elts[q.bottom]
}

// At returns the i-th live element counted from the front.
func (q *Queue[T]) At(i int) *T {
	if i < 0 || i >= q.Len() {
		panic(fmt.Sprintf("queue: index %d out of range [0,%d)", i, q.Len()))
	}
	return &q.elts[q.bottom+i]
}

// Items returns the live elements, front first. The slice is valid until the
// next mutation.
func (q *Queue[T]) Items() []T { return q.elts[q.bottom:q.top] }

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int { return q.top - q.bottom }

// Cap returns the number of slots in the backing array.
func (q *Queue[T]) Cap() int { return len(q.elts) }

// Clear destructs the queued elements and empties the queue, keeping its
// capacity.
func (q *Queue[T]) Clear() {
	live := q.elts[q.bottom:q.top]
	q.arrays.Destruct(live)
	q.arrays.Construct(live, q.bottom)
	q.top, q.bottom = 0, 0
}

// Free releases the backing storage. The queue is empty afterwards and can
// be reused.
func (q *Queue[T]) Free() {
	q.arrays.Free(q.elts)
	q.elts = nil
	q.top, q.bottom = 0, 0
}

func (q *Queue[T]) grow() {
	q.elts = q.arrays.Resize(q.elts, len(q.elts)+1+q.reserve)
}

// compact moves the live range down to offset 0.
func (q *Queue[T]) compact() {
	live := q.top - q.bottom
	copy(q.elts, q.elts[q.bottom:q.top])
	// Slots past the moved range held values that now live below; rebuild
	// them without running Fini.
	q.arrays.Construct(q.elts[live:q.top], live)
	q.bottom, q.top = 0, live
}

// shiftToEnd moves the live range up so that it ends at the last slot.
func (q *Queue[T]) shiftToEnd() {
	shift := len(q.elts) - q.top
	if shift == 0 {
		return
	}
	copy(q.elts[shift:], q.elts[q.bottom:q.top])
	vacated := min(shift, q.top) // bottom is 0 here
	q.arrays.Construct(q.elts[q.bottom:vacated], q.bottom)
	q.bottom += shift
	q.top += shift
}
