package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty indicates a pop or dequeue on an empty container.
	ErrEmpty = errors.New("alloc: container is empty")

	// ErrRefUnderflow indicates a release of an object whose reference count is already zero.
	ErrRefUnderflow = errors.New("alloc: reference count underflow")

	// ErrDoubleFree indicates a free of a block that is not live: one already
	// released to a free list or the pool, or more frees than allocations.
	ErrDoubleFree = errors.New("alloc: free without matching allocation")

	// ErrSizeMismatch indicates a block whose capacity is not a bucket size of its allocator.
	ErrSizeMismatch = errors.New("alloc: block size does not match any bucket")

	// ErrPointerType indicates a pool-backed allocator for a type containing Go pointers.
	ErrPointerType = errors.New("alloc: pool-backed type must be pointer-free")

	// ErrNilLocation indicates a nil slot passed to Assign or Move.
	ErrNilLocation = errors.New("alloc: nil location")
)

// violation panics with err wrapped in context. Contract violations are
// programming errors; callers that need to observe them can recover and
// match with errors.Is.
func violation(err error, format string, args ...any) {
	panic(fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err))
}

