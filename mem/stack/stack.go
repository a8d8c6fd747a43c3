// Package stack implements a LIFO stack over an alloc.Arrays allocator.
package stack

import (
	"fmt"

	"github.com/joshuapare/slabkit/mem/alloc"
)

// Stack is a LIFO of T. The zero value is not usable; call New or Init.
//
// The backing array grows through EnsureSize and may relocate on Push, so
// slices returned by Push are valid only until the next Push or Clear.
type Stack[T any] struct {
	arrays  *alloc.Arrays[T]
	data    []T
	top     int
	reserve int
	onPop   func(slot *T)
}

// Option configures a Stack.
type Option[T any] func(*Stack[T])

// WithReserve sets the number of extra slots added whenever the stack grows.
func WithReserve[T any](n int) Option[T] {
	return func(s *Stack[T]) {
		if n >= 0 {
			s.reserve = n
		}
	}
}

// WithOnPop sets a cleanup hook run on a slot after Pop has read it.
func WithOnPop[T any](fn func(slot *T)) Option[T] {
	return func(s *Stack[T]) { s.onPop = fn }
}

// New returns an empty stack drawing storage from arrays.
func New[T any](arrays *alloc.Arrays[T], opts ...Option[T]) *Stack[T] {
	s := &Stack[T]{}
	s.Init(arrays, opts...)
	return s
}

// Init resets s to an empty stack drawing storage from arrays. Storage held
// by s is not released; call Clear first for a stack in use.
func (s *Stack[T]) Init(arrays *alloc.Arrays[T], opts ...Option[T]) {
	*s = Stack[T]{arrays: arrays}
	for _, opt := range opts {
		opt(s)
	}
}

// Push reserves n slots on top of the stack and returns them for the caller
// to fill. The slots hold constructed values: fresh slots are built by the
// allocator and popped slots are rebuilt by Pop.
func (s *Stack[T]) Push(n int) []T {
	if n <= 0 {
		return nil
	}
	s.data = s.arrays.EnsureSize(s.data, s.top+n, s.reserve)
	slots := s.data[s.top : s.top+n]
	s.top += n
	return slots
}

// PushValue pushes a single value.
func (s *Stack[T]) PushValue(v T) {
	s.Push(1)[0] = v
}

// Pop removes and returns the top element. Ownership of the value moves to
// the caller: the slot is reconstructed without running Fini, so Clear never
// destructs a popped value. It panics with alloc.ErrEmpty on an empty stack.
func (s *Stack[T]) Pop() T {
	if s.top == 0 {
		panic(fmt.Errorf("stack: pop: %w", alloc.ErrEmpty))
	}
	s.top--
	slot := s.data[s.top : s.top+1]
	v := slot[0]
	if s.onPop != nil {
		s.onPop(&slot[0])
	}
	s.arrays.Construct(slot, s.top)
	return v
}

// Peek returns the top slot, or nil when the stack is empty.
func (s *Stack[T]) Peek() *T {
	if s.top == 0 {
		return nil
	}
	return &s.data[s.top-1]
}

// Items returns the live elements, bottom first.
func (s *Stack[T]) Items() []T { return s.data[:s.top] }

// Len returns the number of elements on the stack.
func (s *Stack[T]) Len() int { return s.top }

// Cap returns the number of slots in the backing array.
func (s *Stack[T]) Cap() int { return len(s.data) }

// Clear frees the backing storage and empties the stack.
func (s *Stack[T]) Clear() {
	s.arrays.Free(s.data)
	s.data = nil
	s.top = 0
}
