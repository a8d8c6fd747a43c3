// Package testutil holds helpers shared by slabkit package tests.
package testutil

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// RequireViolation runs fn and fails the test unless it panics with an error
// wrapping target.
//
// Example:
//
//	testutil.RequireViolation(t, alloc.ErrEmpty, func() { s.Pop() })
func RequireViolation(t testing.TB, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected panic wrapping %v", target)
		err, ok := r.(error)
		require.True(t, ok, "panic value %v (%T) is not an error", r, r)
		require.ErrorIs(t, err, target)
	}()
	fn()
}

// AlignedBuffer returns an n-byte buffer whose first byte is 8-byte aligned,
// so that carve offsets in tests do not depend on where the heap placed it.
func AlignedBuffer(n int) []byte {
	if n <= 0 {
		return nil
	}
	words := make([]uint64, (n+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), n)
}
