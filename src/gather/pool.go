package gather

import (
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Pool runs fork-join phases on a fixed set of goroutines
type Pool struct {
	workers *ants.Pool
}

// NewPool returns a Pool with the given number of workers, capped at the number of CPUs
func NewPool(size int) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	if size > runtime.NumCPU() {
		size = runtime.NumCPU()
	}
	workers, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Pool{workers: workers}, nil
}

// Map calls fn once for every index in [0, n) and returns once all calls have finished.
// fn must only write to state owned by its index.
func (p *Pool) Map(n int, fn func(i int)) error {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		if err := p.workers.Submit(func() {
			defer wg.Done()
			fn(i)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return err
		}
	}
	wg.Wait()
	return nil
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return p.workers.Cap()
}

// Closed reports if the pool has been released
func (p *Pool) Closed() bool {
	return p.workers.IsClosed()
}

// Release stops the workers
func (p *Pool) Release() {
	p.workers.Release()
}
