package batch

import (
	"runtime"
	"sync"
)

// Workers caps the number of goroutines ParallelFor uses.
var Workers = runtime.GOMAXPROCS(0)

// ParallelFor executes fn over [0, n) split into contiguous index ranges.
// Ranges never overlap, so fn may write entries start..end-1 freely.
// ParallelFor returns once every range has been processed.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if minChunk < 1 {
		minChunk = 1
	}
	workers := Workers
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
