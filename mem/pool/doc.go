// Package pool implements a bump-pointer sub-allocator over a caller-owned
// byte buffer.
//
// # Overview
//
// A Pool hands out aligned regions by advancing a cursor through its buffer.
// Carving never fails with an error: when the aligned request does not fit in
// the remaining space, Carve reports ok == false and the caller falls back to
// another source (a free list or the Go heap).
//
// # LIFO Give-Back
//
// A region can be returned only while it is the most recently carved chunk
// still abutting the cursor:
//
//	off, ok := p.Carve(64, 8)
//	...
//	p.GiveBack(off, 64) // true: cursor retreats to off
//
// Any other region is rejected, and the caller keeps it on its own free list.
// Bytes skipped to satisfy alignment are never reclaimed.
//
// # Backing Memory
//
// New wraps an existing buffer, NewSize allocates one on the Go heap and
// NewMapped obtains one from an anonymous memory mapping (released by Close).
// Values stored in pool memory must not contain Go pointers: the garbage
// collector does not scan a []byte buffer for references.
//
// # Thread Safety
//
// Pool is not thread-safe. Callers must synchronize access externally.
package pool
