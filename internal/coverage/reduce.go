package coverage

import "sync"

// forkSum evaluates fn(i) for every i in [0, n) across at most workers
// goroutines and returns the sum of the results. Indexes are handed out in
// contiguous chunks; each goroutine accumulates a private partial sum and
// the partials are combined after the join, so fn sees no shared mutable
// state and needs no locking. fn must be safe to call concurrently on
// distinct indexes. Summation order is unspecified; integer addition makes
// the result exact regardless.
func forkSum(n, workers int, fn func(i int) int) int {
	if n <= 0 {
		return 0
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		total := 0
		for i := 0; i < n; i++ {
			total += fn(i)
		}
		return total
	}

	partials := make(chan int, workers)
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			sum := 0
			for i := lo; i < hi; i++ {
				sum += fn(i)
			}
			partials <- sum
		}(lo, hi)
	}

	go func() {
		wg.Wait()
		close(partials)
	}()

	total := 0
	for p := range partials {
		total += p
	}
	return total
}
