// Package cobs defines the process-wide Settings that construction and
// search accept explicitly, instead of reading from package-level
// globals: a single process can build or serve several indices under
// different policies at once, and tests can exercise each knob in
// isolation.
package cobs

import "runtime"

// Settings are the tunables spec.md §6.4 recognizes. The zero value is
// valid and resolves Threads to hardware parallelism.
type Settings struct {
	// Threads bounds worker concurrency for both construction and
	// search. Zero means hardware parallelism (runtime.GOMAXPROCS(0)),
	// mirroring sourcegraph-zoekt's shardedSearcher sizing its worker
	// pool off GOMAXPROCS rather than a hardcoded constant.
	Threads int
	// LoadCompleteIndex pages in an index's whole memory mapping
	// eagerly at open time, trading a slower open for freedom from
	// page faults on the first query against it.
	LoadCompleteIndex bool
	// DisableCache skips the shared LRU file-handle cache, opening and
	// closing a fresh handle on every index open instead of reusing
	// one kept warm across repeated opens of the same path.
	DisableCache bool
}

// Default returns the settings a caller gets by not specifying any:
// hardware parallelism, no eager page-in, cache enabled.
func Default() Settings {
	return Settings{Threads: runtime.GOMAXPROCS(0)}
}

// ThreadCount resolves Threads to a usable worker count, treating a
// non-positive value as "use hardware parallelism."
func (s Settings) ThreadCount() int {
	if s.Threads <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return s.Threads
}
