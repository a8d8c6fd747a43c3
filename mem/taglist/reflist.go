package taglist

import "github.com/joshuapare/slabkit/mem/alloc"

// RefKind holds the allocator shared by all lists of reference-counted V.
type RefKind[V any] struct {
	kind *Kind[*alloc.Ref[V]]
	refs *alloc.Refs[V]
}

// NewRefKind creates the allocator for lists holding references from refs.
// Each slot owns one reference: copying a list takes a reference per slot and
// freeing or deleting releases it.
func NewRefKind[V any](refs *alloc.Refs[V], opts ...Option) *RefKind[V] {
	kind := NewKind(alloc.Hooks[*alloc.Ref[V]]{
		Clone: func(p **alloc.Ref[V]) { refs.Use(*p) },
		Fini: func(p **alloc.Ref[V]) {
			refs.Free(*p)
			*p = nil
		},
	}, opts...)
	return &RefKind[V]{kind: kind, refs: refs}
}

// RefList is a tagged list of reference-counted values.
type RefList[V any] struct {
	*List[*alloc.Ref[V]]
	refs *alloc.Refs[V]
}

// New returns a list with n empty slots.
func (k *RefKind[V]) New(n int) *RefList[V] {
	return &RefList[V]{List: k.kind.New(n), refs: k.refs}
}

// Get returns a new reference to the value tagged tag, or nil.
func (l *RefList[V]) Get(tag uint32) *alloc.Ref[V] {
	p := l.Lookup(tag, false)
	if p == nil {
		return nil
	}
	return l.refs.Use(*p)
}

// Put stores a new reference to obj under tag and returns the previous
// occupant. The caller owns the returned reference and must release it.
func (l *RefList[V]) Put(tag uint32, obj *alloc.Ref[V]) *alloc.Ref[V] {
	p := l.Lookup(tag, true)
	prev := *p
	*p = l.refs.Use(obj)
	return prev
}

// Replace stores a new reference to obj under tag and releases the previous
// occupant.
func (l *RefList[V]) Replace(tag uint32, obj *alloc.Ref[V]) {
	l.refs.Free(l.Put(tag, obj))
}

// Copy returns an independent list holding an extra reference per value.
func (l *RefList[V]) Copy() *RefList[V] {
	return &RefList[V]{List: l.List.Copy(), refs: l.refs}
}
