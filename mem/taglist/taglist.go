// Package taglist implements a multimap from non-zero integer tags to values,
// stored as a linearly scanned array of tag/value slots.
//
// Deleted slots are tombstoned with NullTag and reused by the next Add. When
// several slots carry the same tag, the leftmost one is authoritative:
// deleting it makes the next one visible to Lookup.
package taglist

import (
	"errors"
	"fmt"

	"github.com/joshuapare/slabkit/mem/alloc"
)

// NullTag marks an empty or deleted slot.
const NullTag uint32 = 0

// ErrNullTag indicates a lookup or insertion with NullTag.
var ErrNullTag = errors.New("taglist: tag must be non-zero")

// Entry is one slot of a list.
type Entry[T any] struct {
	Tag   uint32
	Value T
}

// Option configures a Kind.
type Option func(*options)

type options struct {
	reserve int
	scale   alloc.Scale
	alloc   []alloc.Option
}

// WithReserve sets the number of extra slots added whenever a list grows.
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

func buildOptions(opts []Option) options {
	o := options{scale: alloc.Log2()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Kind holds the allocator shared by all lists of one value type.
type Kind[T any] struct {
	arrays  *alloc.Arrays[Entry[T]]
	reserve int
}

// NewKind creates the allocator for lists of T. hooks construct, clone and
// destruct the values held in slots.
func NewKind[T any](hooks alloc.Hooks[T], opts ...Option) *Kind[T] {
	o := buildOptions(opts)
	k := &Kind[T]{reserve: o.reserve}
	k.arrays = alloc.NewArrays(o.scale, alloc.ElemHooks[Entry[T]]{
		Init: func(e *Entry[T], _ int) {
			e.Tag = NullTag
			if hooks.Init != nil {
				hooks.Init(&e.Value)
			}
		},
		Clone: func(e *Entry[T]) {
			if hooks.Clone != nil {
				hooks.Clone(&e.Value)
			}
		},
		Fini: func(e *Entry[T]) {
			if hooks.Fini != nil {
				hooks.Fini(&e.Value)
			}
		},
	}, o.alloc...)
	return k
}

// Arrays returns the allocator backing the lists of this kind.
func (k *Kind[T]) Arrays() *alloc.Arrays[Entry[T]] { return k.arrays }

// List is a tag-keyed multimap.
type List[T any] struct {
	kind    *Kind[T]
	entries []Entry[T]
}

// New returns a list with n empty slots.
func (k *Kind[T]) New(n int) *List[T] {
	return &List[T]{kind: k, entries: k.arrays.New(n)}
}

// Lookup returns the value of the first slot tagged tag. When there is none,
// it returns Add(tag) if add is true and nil otherwise.
func (l *List[T]) Lookup(tag uint32, add bool) *T {
	checkTag(tag)
	for i := range l.entries {
		if l.entries[i].Tag == tag {
			return &l.entries[i].Value
		}
	}
	if add {
		return l.Add(tag)
	}
	return nil
}

// Add stores a freshly constructed value under tag and returns it. The first
// tombstoned slot is reused; otherwise the list grows by 1+reserve slots.
// Earlier slots with the same tag keep shadowing the new one.
//
// Tombstones always hold constructed values: New and Resize build them and
// Delete rebuilds them, so Add only claims the slot.
func (l *List[T]) Add(tag uint32) *T {
	checkTag(tag)
	i := l.firstFree()
	if i < 0 {
		i = len(l.entries)
		l.entries = l.kind.arrays.Resize(l.entries, i+1+l.kind.reserve)
	}
	l.entries[i].Tag = tag
	return &l.entries[i].Value
}

// Delete tombstones the first slot tagged tag, or every such slot when all
// is true, and returns the number of slots removed.
func (l *List[T]) Delete(tag uint32, all bool) int {
	checkTag(tag)
	removed := 0
	for i := range l.entries {
		if l.entries[i].Tag != tag {
			continue
		}
		slot := l.entries[i : i+1]
		l.kind.arrays.Destruct(slot)
		l.kind.arrays.Construct(slot, i)
		removed++
		if !all {
			break
		}
	}
	return removed
}

// Each calls fn on every value tagged tag, left to right, until fn returns
// false. It reports whether the walk completed.
func (l *List[T]) Each(tag uint32, fn func(v *T) bool) bool {
	checkTag(tag)
	for i := range l.entries {
		if l.entries[i].Tag == tag && !fn(&l.entries[i].Value) {
			return false
		}
	}
	return true
}

// All calls fn on every occupied slot, left to right, until fn returns false.
func (l *List[T]) All(fn func(tag uint32, v *T) bool) bool {
	for i := range l.entries {
		if e := &l.entries[i]; e.Tag != NullTag && !fn(e.Tag, &e.Value) {
			return false
		}
	}
	return true
}

// Len returns the number of occupied slots.
func (l *List[T]) Len() int {
	n := 0
	for i := range l.entries {
		if l.entries[i].Tag != NullTag {
			n++
		}
	}
	return n
}

// Cap returns the number of slots.
func (l *List[T]) Cap() int { return len(l.entries) }

// Copy returns an independent list with cloned values.
func (l *List[T]) Copy() *List[T] {
	return &List[T]{kind: l.kind, entries: l.kind.arrays.Copy(l.entries)}
}

// Free destructs every value and releases the slots.
func (l *List[T]) Free() {
	l.kind.arrays.Free(l.entries)
	l.entries = nil
}

func (l *List[T]) firstFree() int {
	for i := range l.entries {
		if l.entries[i].Tag == NullTag {
			return i
		}
	}
	return -1
}

func checkTag(tag uint32) {
	if tag == NullTag {
		panic(fmt.Errorf("taglist: %w", ErrNullTag))
	}
}
