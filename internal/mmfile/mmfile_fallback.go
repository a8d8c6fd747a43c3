//go:build !unix

package mmfile

import "fmt"

// Anon allocates size zeroed bytes on the Go heap when mmap is not available.
func Anon(size int) ([]byte, func() error, error) {
	if size < 0 {
		return nil, nil, fmt.Errorf("mmfile: negative mapping size %d", size)
	}
	return make([]byte, size), func() error { return nil }, nil
}
