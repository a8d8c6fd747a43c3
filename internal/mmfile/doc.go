// Package mmfile provides platform-specific helpers for obtaining page-backed
// memory outside the Go heap.
package mmfile
