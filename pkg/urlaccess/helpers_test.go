package urlaccess

import (
	"sync"
)

// countingAllocator records Allocate/Deallocate calls.
type countingAllocator struct {
	mu     sync.Mutex
	allocs int
	frees  int
	fail   error
}

func (a *countingAllocator) Allocate(n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.fail != nil {
		return nil, a.fail
	}

	a.allocs++

	return make([]byte, n), nil
}

func (a *countingAllocator) Deallocate([]byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.frees++
}

func (a *countingAllocator) counts() (allocs, frees int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.allocs, a.frees
}
