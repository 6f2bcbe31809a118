// Package parallel provides helpers for splitting batch computations
// across CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits the half-open range [0, items) into contiguous chunks,
// one per worker, and runs fn(start, end) for each chunk on its own
// goroutine. It blocks until every chunk has been processed.
//
// fn must be safe to call concurrently for disjoint ranges.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	workers := runtime.NumCPU()
	if workers > items {
		workers = items
	}

	// Ceiling division so the last chunk absorbs the remainder.
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold runs fn(0, items) sequentially when items is at or
// below threshold, and falls back to Parallelize above it. Small batches stay
// on the calling goroutine where the goroutine overhead would dominate.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}

	Parallelize(items, fn)
}
