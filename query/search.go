// Package query implements the search algorithm of spec.md §4.8: k-mer
// windowing, bulk row fetch, per-k-mer AND-reduction, and popcount
// accumulation into a ranked (score, name) sequence.
package query

import (
	"math"
	"sort"
	"sync"

	"github.com/cobs-index/cobs"
	"github.com/cobs-index/cobs/cobserr"
	"github.com/cobs-index/cobs/cobsindex"
	"github.com/cobs-index/cobs/khash"
	"github.com/cobs-index/cobs/kmer"
	"github.com/cobs-index/cobs/parallelfor"
)

// Result is one ranked hit.
type Result struct {
	Score uint16
	Name  string
}

// Search runs the full query algorithm against a single index file
// under the default Settings (hardware parallelism). Use
// SearchWithSettings to control worker concurrency explicitly.
// threshold filters results to score >= ceil(threshold*(|Q|-term_size+1));
// numResults == 0 returns every document.
func Search(sf cobsindex.SearchFile, q []byte, threshold float64, numResults int) ([]Result, error) {
	return SearchWithSettings(sf, q, threshold, numResults, cobs.Default())
}

// SearchWithSettings is Search with the worker count bounded by
// settings.ThreadCount() instead of always using GOMAXPROCS.
func SearchWithSettings(sf cobsindex.SearchFile, q []byte, threshold float64, numResults int, settings cobs.Settings) ([]Result, error) {
	termSize := int(sf.TermSize())
	if len(q) < termSize {
		return nil, cobserr.New(cobserr.QueryTooShort,
			"query shorter than index term size")
	}
	if threshold < 0 || threshold > 1 {
		return nil, cobserr.New(cobserr.OutOfRange, "threshold must be in [0,1]")
	}

	numWindows := len(q) - termSize + 1
	numHashes := sf.NumHashes()
	rowSize := sf.RowSize()
	numDocs := sf.NumDocuments()

	// One counter per bit of a row (8 per byte), which can exceed
	// numDocs when a row's last byte is only partly used.
	total := make([]uint16, 8*rowSize)
	var mu sync.Mutex

	err := parallelfor.Range(numWindows, settings.ThreadCount(), func(lo, hi int) error {
		local := make([]uint16, 8*rowSize)
		hashes := make([]uint64, numHashes)
		rowBuf := make([]byte, rowSize)
		hitRow := make([]byte, rowSize)

		for w := lo; w < hi; w++ {
			window := q[w : w+termSize]
			var km []byte
			if sf.Canonicalize() {
				km = kmer.Canonicalize(window)
			} else {
				km = window
			}

			khash.RawRowHashes(km, numHashes, hashes)

			for i := range hitRow {
				hitRow[i] = 0xFF
			}
			for _, h := range hashes {
				if err := sf.ReadRowInto(h, rowBuf); err != nil {
					return err
				}
				for i := range hitRow {
					hitRow[i] &= rowBuf[i]
				}
			}
			accumulateRow(local, hitRow)
		}

		mu.Lock()
		for i := range total {
			total[i] += local[i]
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	minScore := uint16(0)
	if threshold > 0 {
		minScore = uint16(math.Ceil(threshold * float64(numWindows)))
	}

	names := sf.Names()
	results := make([]Result, 0, numDocs)
	for d, c := range total[:numDocs] {
		if c >= minScore {
			results = append(results, Result{Score: c, Name: names[d]})
		}
	}
	rank(results)

	if numResults > 0 && len(results) > numResults {
		results = results[:numResults]
	}
	return results, nil
}

// rank sorts by descending score, ties broken by ascending original
// index. SliceStable preserves the ascending-index order results was
// built in, so only the score comparator is needed.
func rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// CheckCompatible reports an IndexMismatch error if the given search
// files disagree on term size or canonicalization, the two query
// parameters a caller must hold fixed across every shard of a sharded
// search.
func CheckCompatible(sfs ...cobsindex.SearchFile) error {
	if len(sfs) == 0 {
		return nil
	}
	termSize := sfs[0].TermSize()
	canon := sfs[0].Canonicalize()
	for _, sf := range sfs[1:] {
		if sf.TermSize() != termSize || sf.Canonicalize() != canon {
			return cobserr.New(cobserr.IndexMismatch,
				"search files disagree on term size or canonicalization")
		}
	}
	return nil
}

// SearchAll runs Search against every search file under the default
// Settings and merges the results into one ranked sequence. Use
// SearchAllWithSettings to control worker concurrency explicitly.
func SearchAll(sfs []cobsindex.SearchFile, q []byte, threshold float64, numResults int) ([]Result, error) {
	return SearchAllWithSettings(sfs, q, threshold, numResults, cobs.Default())
}

// SearchAllWithSettings runs SearchWithSettings against every search
// file and merges the results into one ranked sequence, as if they
// were partitions of a single larger index. Every file must agree on
// term size and canonicalization (see CheckCompatible); document names
// are assumed disjoint across files.
func SearchAllWithSettings(sfs []cobsindex.SearchFile, q []byte, threshold float64, numResults int, settings cobs.Settings) ([]Result, error) {
	if err := CheckCompatible(sfs...); err != nil {
		return nil, err
	}
	var merged []Result
	for _, sf := range sfs {
		r, err := SearchWithSettings(sf, q, threshold, 0, settings)
		if err != nil {
			return nil, err
		}
		merged = append(merged, r...)
	}
	rank(merged)
	if numResults > 0 && len(merged) > numResults {
		merged = merged[:numResults]
	}
	return merged, nil
}
