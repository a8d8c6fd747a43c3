// Package refset implements a set of reference-counted records compared by
// identity.
//
// Membership is pointer equality, never value equality. The set owns one
// reference per member; removed members leave nil holes that later inserts
// fill before the backing array grows.
package refset

import "github.com/joshuapare/slabkit/mem/alloc"

// Option configures a Kind.
type Option func(*options)

type options struct {
	reserve int
	scale   alloc.Scale
	alloc   []alloc.Option
}

// WithReserve sets the number of extra slots added whenever a set grows.
func WithReserve(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.reserve = n
		}
	}
}

// WithScale sets the bucket function of the underlying array allocator.
func WithScale(s alloc.Scale) Option {
	return func(o *options) { o.scale = s }
}

// WithAllocOptions passes options to the underlying array allocator.
func WithAllocOptions(opts ...alloc.Option) Option {
	return func(o *options) { o.alloc = append(o.alloc, opts...) }
}

// Kind holds the allocator shared by all sets of one record type.
type Kind[V any] struct {
	refs    *alloc.Refs[V]
	arrays  *alloc.Arrays[*alloc.Ref[V]]
	reserve int
}

// NewKind creates the allocator for sets of records from refs.
func NewKind[V any](refs *alloc.Refs[V], opts ...Option) *Kind[V] {
	o := options{scale: alloc.Log2()}
	for _, opt := range opts {
		opt(&o)
	}
	arrays := alloc.NewArrays(o.scale, refs.ElemHooks(), o.alloc...)
	return &Kind[V]{refs: refs, arrays: arrays, reserve: o.reserve}
}

// Arrays returns the allocator backing the sets of this kind.
func (k *Kind[V]) Arrays() *alloc.Arrays[*alloc.Ref[V]] { return k.arrays }

// Set is a set of distinct records.
type Set[V any] struct {
	kind *Kind[V]
	elts []*alloc.Ref[V]
}

// New returns an empty set with n slots.
func (k *Kind[V]) New(n int) *Set[V] {
	return &Set[V]{kind: k, elts: k.arrays.New(n)}
}

// Has reports whether obj is a member.
func (s *Set[V]) Has(obj *alloc.Ref[V]) bool {
	return obj != nil && s.index(obj) >= 0
}

// Include adds obj, taking a reference on it. Including nil or a member is a
// no-op. The first hole is reused; otherwise the set grows by 1+reserve slots.
func (s *Set[V]) Include(obj *alloc.Ref[V]) {
	if obj == nil || s.index(obj) >= 0 {
		return
	}
	i := s.index(nil)
	if i < 0 {
		i = len(s.elts)
		s.elts = s.kind.arrays.Resize(s.elts, i+1+s.kind.reserve)
	}
	s.elts[i] = s.kind.refs.Use(obj)
}

// IncludeAll includes each of objs in order.
func (s *Set[V]) IncludeAll(objs ...*alloc.Ref[V]) {
	for _, obj := range objs {
		s.Include(obj)
	}
}

// Exclude removes obj and releases the set's reference on it. It reports
// whether obj was a member.
func (s *Set[V]) Exclude(obj *alloc.Ref[V]) bool {
	if obj == nil {
		return false
	}
	i := s.index(obj)
	if i < 0 {
		return false
	}
	s.drop(i)
	return true
}

// Count returns the number of members. It scans every slot.
func (s *Set[V]) Count() int {
	n := 0
	for _, e := range s.elts {
		if e != nil {
			n++
		}
	}
	return n
}

// Cap returns the number of slots.
func (s *Set[V]) Cap() int { return len(s.elts) }

// Filter removes every member for which keep returns false.
func (s *Set[V]) Filter(keep func(obj *alloc.Ref[V]) bool) {
	for i, e := range s.elts {
		if e != nil && !keep(e) {
			s.drop(i)
		}
	}
}

// ForEach calls fn on every member in slot order. It stops and returns false
// as soon as fn returns false.
func (s *Set[V]) ForEach(fn func(obj *alloc.Ref[V]) bool) bool {
	for _, e := range s.elts {
		if e != nil && !fn(e) {
			return false
		}
	}
	return true
}

// Clear removes every member, keeping the slots.
func (s *Set[V]) Clear() {
	for i, e := range s.elts {
		if e != nil {
			s.drop(i)
		}
	}
}

// Copy returns a set with the same members, each with an extra reference.
func (s *Set[V]) Copy() *Set[V] {
	return &Set[V]{kind: s.kind, elts: s.kind.arrays.Copy(s.elts)}
}

// Free releases every member and the slots.
func (s *Set[V]) Free() {
	s.kind.arrays.Free(s.elts)
	s.elts = nil
}

func (s *Set[V]) drop(i int) {
	s.kind.refs.Free(s.elts[i])
	s.elts[i] = nil
}

func (s *Set[V]) index(obj *alloc.Ref[V]) int {
	for i, e := range s.elts {
		if e == obj {
			return i
		}
	}
	return -1
}
