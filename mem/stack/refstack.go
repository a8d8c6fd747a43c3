package stack

import "github.com/joshuapare/slabkit/mem/alloc"

// RefStack is a stack of reference-counted records. Each occupied slot owns
// one reference.
type RefStack[V any] struct {
	*Stack[*alloc.Ref[V]]
	refs *alloc.Refs[V]
}

// NewRef returns an empty stack of records from refs. Storage comes from a
// per-stack allocator using scale and opts.
func NewRef[V any](refs *alloc.Refs[V], scale alloc.Scale, opts ...Option[*alloc.Ref[V]]) *RefStack[V] {
	arrays := alloc.NewArrays(scale, refs.ElemHooks())
	return &RefStack[V]{Stack: New(arrays, opts...), refs: refs}
}

// PushRef pushes a new reference to obj. The caller keeps its own.
func (s *RefStack[V]) PushRef(obj *alloc.Ref[V]) {
	s.PushValue(s.refs.Use(obj))
}

// Drop pops the top record and releases the stack's reference to it.
func (s *RefStack[V]) Drop() {
	s.refs.Free(s.Pop())
}
