package urlaccess

import (
	"errors"
	"fmt"
	"math"
)

// Allocator provides the buffers that fetched resource bytes are read into.
//
// The fetch path calls Allocate once per read. Ownership of the returned
// slice passes to the caller of Fetch on success; on failure the handler
// hands it back through Deallocate before returning.
type Allocator interface {
	// Allocate returns a slice of exactly n bytes.
	Allocate(n int) ([]byte, error)

	// Deallocate releases a buffer obtained from Allocate that will not be
	// returned to the caller.
	Deallocate(buf []byte)
}

// errAllocSize is returned for sizes that cannot be allocated.
var errAllocSize = errors.New("invalid allocation size")

// HeapAllocator allocates buffers on the Go heap. Deallocate is a no-op;
// the garbage collector reclaims dropped buffers.
type HeapAllocator struct{}

func (HeapAllocator) Allocate(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", errAllocSize, n)
	}

	return make([]byte, n), nil
}

func (HeapAllocator) Deallocate([]byte) {}

// allocSize converts a file length to an allocation size.
func allocSize(size int64) (int, error) {
	if size < 0 || uint64(size) > math.MaxInt {
		return 0, fmt.Errorf("%w: %d", errAllocSize, size)
	}

	return int(size), nil
}
