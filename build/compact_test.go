package build

import (
	"os"
	"testing"
)

func TestCompactPageSizePageAligned(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 100, 5000} {
		ps := CompactPageSize(n)
		if ps == 0 {
			t.Fatalf("CompactPageSize(%d) = 0", n)
		}
		if int(ps) < (n+7)/8 {
			t.Fatalf("CompactPageSize(%d) = %d, too small for %d docs", n, ps, n)
		}
		if ps%uint64(os.Getpagesize()) != 0 {
			t.Fatalf("CompactPageSize(%d) = %d, not a multiple of the OS page size %d", n, ps, os.Getpagesize())
		}
	}
}

func TestSizeClassPartitionCoversAllDocs(t *testing.T) {
	termCounts := make([]int, 10)
	for i := range termCounts {
		termCounts[i] = i * 17
	}
	groups := SizeClassPartition(termCounts, 3)
	seen := map[int]bool{}
	for _, g := range groups {
		for _, idx := range g {
			if seen[idx] {
				t.Fatalf("index %d assigned to more than one partition", idx)
			}
			seen[idx] = true
		}
	}
	if len(seen) != len(termCounts) {
		t.Fatalf("covered %d of %d documents", len(seen), len(termCounts))
	}
}

func TestSizeClassPartitionGroupsBySize(t *testing.T) {
	termCounts := []int{100, 1, 2, 90, 3, 95}
	groups := SizeClassPartition(termCounts, 2)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	for _, idx := range groups[0] {
		if termCounts[idx] > 3 {
			t.Fatalf("low size-class group contains a large document: termCounts[%d]=%d", idx, termCounts[idx])
		}
	}
	for _, idx := range groups[1] {
		if termCounts[idx] < 90 {
			t.Fatalf("high size-class group contains a small document: termCounts[%d]=%d", idx, termCounts[idx])
		}
	}
}
