package queue

import "github.com/joshuapare/slabkit/mem/alloc"

// RefQueue is a queue of reference-counted records. Each queued slot owns
// one reference; Dequeue and DequeueBack hand that reference to the caller.
type RefQueue[V any] struct {
	*Queue[*alloc.Ref[V]]
	refs *alloc.Refs[V]
}

// NewRef returns an empty queue of records from refs with n preallocated
// slots.
func NewRef[V any](refs *alloc.Refs[V], scale alloc.Scale, n int, opts ...Option) *RefQueue[V] {
	arrays := alloc.NewArrays(scale, refs.ElemHooks())
	return &RefQueue[V]{Queue: New(arrays, n, opts...), refs: refs}
}

// EnqueueRef appends a new reference to obj at the back.
func (q *RefQueue[V]) EnqueueRef(obj *alloc.Ref[V]) {
	q.Enqueue(q.refs.Use(obj))
}

// EnqueueFrontRef inserts a new reference to obj at the front.
func (q *RefQueue[V]) EnqueueFrontRef(obj *alloc.Ref[V]) {
	q.EnqueueFront(q.refs.Use(obj))
}

// Drop removes the front record and releases the queue's reference to it.
func (q *RefQueue[V]) Drop() {
	q.refs.Free(q.Dequeue())
}
