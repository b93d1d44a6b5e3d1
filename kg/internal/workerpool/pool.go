// Package workerpool provides generic parallel fan-out shared by the
// reasoner's parallel semi-naive rounds and the executor's ParallelJoin
// operator. One pool is shared across all parallel operations.
package workerpool

import (
	"fmt"
	"runtime"
	"sync"
)

// Pool runs a fixed number of worker goroutines over a slice of inputs.
type Pool struct {
	workerCount int
}

// New creates a pool. workerCount <= 0 means runtime.NumCPU().
func New(workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	return &Pool{workerCount: workerCount}
}

// Run executes operation on every input and returns results in the same
// order as inputs (order-preserving), regardless of completion order. The
// first error encountered is returned, wrapped with the failing index.
func Run[In, Out any](p *Pool, inputs []In, operation func(In) (Out, error)) ([]Out, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	results := make([]Out, len(inputs))
	errs := make([]error, len(inputs))
	jobs := make(chan int, len(inputs))

	var wg sync.WaitGroup
	workers := p.workerCount
	if workers > len(inputs) {
		workers = len(inputs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx], errs[idx] = operation(inputs[idx])
			}
		}()
	}

	for i := range inputs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("parallel execution failed at index %d: %w", i, err)
		}
	}
	return results, nil
}

// Merge runs operation on every input, collecting all per-worker results
// under a single accumulator built by zero and combined by merge — the
// per-worker local accumulators merged at the end under a single
// exclusive write scope.
func Merge[In, Acc any](p *Pool, inputs []In, zero func() Acc, operation func(In, Acc) error, merge func(dst, src Acc)) (Acc, error) {
	var zeroVal Acc
	if len(inputs) == 0 {
		return zero(), nil
	}

	workers := p.workerCount
	if workers > len(inputs) {
		workers = len(inputs)
	}

	jobs := make(chan In, len(inputs))
	accs := make([]Acc, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		accs[w] = zero()
		wg.Add(1)
		go func(workerIdx int) {
			defer wg.Done()
			for in := range jobs {
				if err := operation(in, accs[workerIdx]); err != nil {
					errs[workerIdx] = err
					return
				}
			}
		}(w)
	}

	for _, in := range inputs {
		jobs <- in
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return zeroVal, err
		}
	}

	final := zero()
	for _, acc := range accs {
		merge(final, acc)
	}
	return final, nil
}
