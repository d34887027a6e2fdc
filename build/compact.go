package build

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/cobs-index/cobs/bloom"
	"github.com/cobs-index/cobs/cobserr"
	"github.com/cobs-index/cobs/cobsfile"
)

// CompactPartition is one size-class sub-shard of a compact index: its
// own document list and signature size, sharing the compact index's
// global page size as its row byte width.
type CompactPartition struct {
	Names         []string
	SignatureSize uint64
	NumHashes     uint64
	// Matrix is SignatureSize rows of PageSize bytes each (not
	// RowBytes() — the row is padded to the shared page size, spec.md
	// §4.6/§6.1's page-aligned sub-shard).
	Matrix []byte
	// Members records, for debug dumps, which global document indices
	// (the index into the full build's name/term-count slices, not
	// this partition's local document order) this size class holds.
	Members *roaring.Bitmap
}

// BuildCompactPartition transposes a size-class's signatures into a
// page-aligned partition. pageSize must be at least ceil(len(names)/8);
// the tail of every row beyond the real document bits is left zero.
// globalIndices, if non-nil, records each document's index in the
// whole build's document list, for the partition's Members bitmap.
func BuildCompactPartition(numHashes int, names []string, sigs []*bloom.Signature, pageSize uint64, globalIndices []int) (*CompactPartition, error) {
	if len(names) != len(sigs) {
		return nil, cobserr.New(cobserr.Internal, "names/signatures length mismatch")
	}
	if len(sigs) == 0 {
		return nil, cobserr.New(cobserr.Internal, "no signatures in partition")
	}
	rowBytes := (len(names) + 7) / 8
	if uint64(rowBytes) > pageSize {
		return nil, cobserr.New(cobserr.OutOfRange, "page size too small for partition's document count")
	}
	m := sigs[0].Size()
	for _, s := range sigs {
		if s.Size() != m {
			return nil, cobserr.New(cobserr.Internal, "signature size mismatch in partition")
		}
	}

	matrix := make([]byte, int(m)*int(pageSize))
	for d, sig := range sigs {
		bits := sig.Bits()
		for h := uint64(0); h < m; h++ {
			byteIdx := h / 8
			mask := byte(1) << (h % 8)
			if bits[byteIdx]&mask != 0 {
				row := matrix[int(h)*int(pageSize) : (int(h)+1)*int(pageSize)]
				setBit(row, d)
			}
		}
	}

	members := roaring.New()
	for _, idx := range globalIndices {
		members.Add(uint32(idx))
	}

	return &CompactPartition{
		Names:         append([]string(nil), names...),
		SignatureSize: m,
		NumHashes:     uint64(numHashes),
		Matrix:        matrix,
		Members:       members,
	}, nil
}

// CompactPageSize picks the shared row byte width for a compact index:
// large enough to hold the largest partition's document bits, rounded
// up to the OS page size so each partition's data region lands on a
// page boundary (spec.md §8 property 6).
func CompactPageSize(maxDocsInAnyPartition int) uint64 {
	need := (maxDocsInAnyPartition + 7) / 8
	page := os.Getpagesize()
	if page <= 0 {
		page = 4096
	}
	n := (need + page - 1) / page
	if n == 0 {
		n = 1
	}
	return uint64(n * page)
}

// CompactPlan is the complete in-memory form of a compact index,
// ready to be written.
type CompactPlan struct {
	TermSize     uint32
	Canonicalize bool
	PageSize     uint64
	Partitions   []*CompactPartition
}

// MembershipSummary returns, per partition, the number of documents it
// holds and its lowest/highest global document index — a cheap debug
// dump for diagnosing a lopsided size-class split.
func (p *CompactPlan) MembershipSummary() []string {
	out := make([]string, len(p.Partitions))
	for i, part := range p.Partitions {
		if part.Members == nil || part.Members.IsEmpty() {
			out[i] = "empty"
			continue
		}
		out[i] = fmt.Sprintf("docs=%d min=%d max=%d", part.Members.GetCardinality(), part.Members.Minimum(), part.Members.Maximum())
	}
	return out
}

// Write streams the outer header, fixed fields, name list, inner
// magic, padding, and every partition's matrix — in that order,
// matching spec.md §6.1's compact index layout exactly: unlike the
// document and classic artifacts, the compact index's inner magic
// precedes the page-alignment padding rather than trailing the file,
// since the padding size is measured from the end of the magic word.
func (p *CompactPlan) Write(out io.Writer) error {
	var names []string
	dims := make([]cobsfile.PartitionDims, len(p.Partitions))
	for i, part := range p.Partitions {
		names = append(names, part.Names...)
		dims[i] = cobsfile.PartitionDims{SignatureSize: part.SignatureSize, NumHashes: part.NumHashes}
	}

	h := cobsfile.CompactHeader{
		TermSize:     p.TermSize,
		Canonicalize: p.Canonicalize,
		PageSize:     p.PageSize,
		Partitions:   dims,
		FileNames:    names,
	}
	if _, err := cobsfile.WriteCompactHeader(out, h); err != nil {
		return err
	}
	for _, part := range p.Partitions {
		if _, err := out.Write(part.Matrix); err != nil {
			return cobserr.Wrap(cobserr.FileIO, "write partition matrix", err)
		}
	}
	return nil
}

// SizeClassPartition buckets n documents by term count into at most
// numPartitions contiguous size classes of roughly equal document
// count (spec.md §4.6): sorting by size first means each returned
// group's documents all need a similar Bloom dimension, instead of one
// partition being dragged out to the size of its single largest
// member.
func SizeClassPartition(termCounts []int, numPartitions int) [][]int {
	n := len(termCounts)
	if numPartitions <= 0 {
		numPartitions = 1
	}
	if numPartitions > n {
		numPartitions = n
	}
	if n == 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return termCounts[order[i]] < termCounts[order[j]]
	})

	groups := make([][]int, 0, numPartitions)
	base := n / numPartitions
	rem := n % numPartitions
	pos := 0
	for p := 0; p < numPartitions; p++ {
		size := base
		if p < rem {
			size++
		}
		if size == 0 {
			continue
		}
		group := append([]int(nil), order[pos:pos+size]...)
		pos += size
		groups = append(groups, group)
	}
	return groups
}

// DefaultCompactPartitions picks a partition count that keeps
// hardware_parallelism busy without over-fragmenting a small corpus.
func DefaultCompactPartitions(numDocs int) int {
	n := runtime.GOMAXPROCS(0)
	if n > numDocs {
		n = numDocs
	}
	if n < 1 {
		n = 1
	}
	return n
}
