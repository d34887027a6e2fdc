// Package parallelfor provides the one data-parallel loop primitive
// construction and query both drive: split a range of indices into
// contiguous chunks and run each chunk on its own goroutine, the way
// sourcegraph-zoekt's shards.go fans its per-shard search loop out
// across an errgroup rather than hand-rolling a worker pool.
package parallelfor

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Range splits [0, n) into at most workers contiguous chunks and calls
// fn(lo, hi) for each on its own goroutine, waiting for all of them to
// finish. workers <= 0 means runtime.GOMAXPROCS(0). The first error
// returned by any chunk is returned; every iteration still runs (no
// chunk is skipped because a sibling failed), matching the "independent
// iterations over disjoint ranges" shape spec.md's concurrency model
// calls for.
func Range(n, workers int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			return fn(lo, hi)
		})
	}
	return g.Wait()
}
