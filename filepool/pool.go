// Package filepool implements the bounded, approximate-LRU file handle
// pool of spec.md §4.9: term producers over seekable, lazily-read
// document families (e.g. an indexed multi-FASTA) share a capped
// number of open *os.File handles keyed by path.
//
// The pool's shape (Get-or-open, evict-closes, single guarding mutex)
// is grounded in sourcegraph-zoekt's index/lrucache.go LRUCache[K, V],
// but its backing store is github.com/hashicorp/golang-lru/v2 instead
// of a hand-rolled container/list cache: the task favors a real
// third-party dependency over an equivalent stdlib-only implementation
// whenever the example pack carries one, and golang-lru/v2 is exactly
// that dependency (also used for composite-key caching by the
// yellowstone-faithful preindex/rpcpool examples in the pack).
package filepool

import (
	"os"
	"runtime"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cobs-index/cobs/cobserr"
)

// Pool is a capacity-bounded, mutex-guarded map from path to an open
// read-only file handle, with approximate-LRU eviction. Evicted or
// explicitly removed handles are closed.
type Pool struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *os.File]
}

// DefaultCapacity is 4 * hardware_parallelism, as spec.md §4.9 requires.
func DefaultCapacity() int {
	n := 4 * runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return n
}

// New builds a pool with the given capacity.
func New(capacity int) (*Pool, error) {
	if capacity <= 0 {
		return nil, cobserr.New(cobserr.OutOfRange, "pool capacity must be positive")
	}
	p := &Pool{}
	cache, err := lru.NewWithEvict[string, *os.File](capacity, func(_ string, f *os.File) {
		f.Close()
	})
	if err != nil {
		return nil, cobserr.Wrap(cobserr.Internal, "build lru cache", err)
	}
	p.cache = cache
	return p, nil
}

// NewDefault builds a pool with DefaultCapacity.
func NewDefault() (*Pool, error) {
	return New(DefaultCapacity())
}

// Get returns an open handle for path, opening and caching it on a
// miss. The returned handle must not be closed by the caller; it is
// owned by the pool until evicted or Remove/Close is called.
func (p *Pool) Get(path string) (*os.File, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if f, ok := p.cache.Get(path); ok {
		return f, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, cobserr.Wrap(cobserr.FileIO, "open "+path, err)
	}
	p.cache.Add(path, f)
	return f, nil
}

// Remove closes and evicts path's handle, if cached.
func (p *Pool) Remove(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Remove(path)
}

// Len reports the number of handles currently cached.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Len()
}

// Close evicts and closes every cached handle.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Purge()
}
