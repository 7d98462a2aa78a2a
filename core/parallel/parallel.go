// Package parallel provides chunked fan-out helpers for CPU-bound work.
// The batch fitter uses them to process independent datasets concurrently.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits items across one worker per available CPU core and runs
// fn on each contiguous range [start, end). It returns when every range has
// been processed. The ranges partition [0, items); fn must not assume any
// ordering between them.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// Ceiling division so the last worker takes the remainder.
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially over the whole range when
// items is at or below threshold, and fans out via Parallelize otherwise.
// Small batches stay on the calling goroutine to avoid scheduling overhead.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
