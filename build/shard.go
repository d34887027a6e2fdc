// Package build implements the construction pipeline of spec.md
// §4.3-4.6: turn per-document term streams into per-document Bloom
// signatures, transpose those into a bit-sliced classic shard, combine
// shards hierarchically, and partition by document size into a
// page-aligned compact index.
package build

import (
	"github.com/cobs-index/cobs/bloom"
	"github.com/cobs-index/cobs/cobserr"
	"github.com/cobs-index/cobs/parallelfor"
)

// ClassicShard is the in-memory form of a classic index's payload: a
// flat, row-major bit matrix plus its document names and dimensions.
type ClassicShard struct {
	TermSize      uint32
	Canonicalize  bool
	SignatureSize uint64
	NumHashes     uint64
	Names         []string
	// Matrix is SignatureSize rows of RowBytes() bytes each, bit d of
	// row h set iff document d's signature has bit h set.
	Matrix []byte
}

// RowBytes is ceil(len(Names)/8).
func (s *ClassicShard) RowBytes() int {
	return int((uint64(len(s.Names)) + 7) / 8)
}

func bitSet(row []byte, d int) bool {
	return row[d/8]&(1<<uint(d%8)) != 0
}

func setBit(row []byte, d int) {
	row[d/8] |= 1 << uint(d%8)
}

// Transpose builds a ClassicShard from a set of same-sized, same-hash-count
// per-document Bloom signatures, one bit column per document (spec.md
// §4.4). It is a pure row-major transpose: shard_bit(h, d) ==
// signature_bit(d, h) for every (h, d), by construction.
func Transpose(termSize uint32, canonicalize bool, numHashes int, names []string, sigs []*bloom.Signature) (*ClassicShard, error) {
	if len(names) != len(sigs) {
		return nil, cobserr.New(cobserr.Internal, "names/signatures length mismatch")
	}
	if len(sigs) == 0 {
		return nil, cobserr.New(cobserr.Internal, "no signatures to transpose")
	}
	m := sigs[0].Size()
	for _, s := range sigs {
		if s.Size() != m {
			return nil, cobserr.New(cobserr.Internal, "signature size mismatch in transpose set")
		}
	}

	rowBytes := (len(names) + 7) / 8
	matrix := make([]byte, int(m)*rowBytes)
	for d, sig := range sigs {
		bits := sig.Bits()
		for h := uint64(0); h < m; h++ {
			byteIdx := h / 8
			mask := byte(1) << (h % 8)
			if bits[byteIdx]&mask != 0 {
				setBit(matrix[int(h)*rowBytes:(int(h)+1)*rowBytes], d)
			}
		}
	}

	return &ClassicShard{
		TermSize:      termSize,
		Canonicalize:  canonicalize,
		SignatureSize: m,
		NumHashes:     uint64(numHashes),
		Names:         append([]string(nil), names...),
		Matrix:        matrix,
	}, nil
}

// Combine merges two shards built under identical parameters (term
// size, canonicalization, signature size, hash count) into one whose
// document list is Da followed by Db and whose rows are repacked so
// that bit d of the combined row equals document d's bit in its
// source shard (spec.md §8 property 5). Rows are repacked into a
// single contiguous bit-packed row, rather than literally
// byte-concatenating each shard's (possibly partially-filled) last
// byte, so the combined shard still satisfies the classic file
// format's single ceil(total_names/8) row width (spec.md §6.1) instead
// of leaking per-shard padding bits into the middle of a row.
func Combine(a, b *ClassicShard) (*ClassicShard, error) {
	if a.TermSize != b.TermSize || a.Canonicalize != b.Canonicalize ||
		a.SignatureSize != b.SignatureSize || a.NumHashes != b.NumHashes {
		return nil, cobserr.New(cobserr.IndexMismatch, "shards disagree on term size, canonicalization, signature size, or hash count")
	}

	nA, nB := len(a.Names), len(b.Names)
	total := nA + nB
	rowBytesOut := (total + 7) / 8
	rowBytesA, rowBytesB := a.RowBytes(), b.RowBytes()

	matrix := make([]byte, int(a.SignatureSize)*rowBytesOut)
	for h := 0; h < int(a.SignatureSize); h++ {
		rowOut := matrix[h*rowBytesOut : (h+1)*rowBytesOut]
		rowA := a.Matrix[h*rowBytesA : (h+1)*rowBytesA]
		rowB := b.Matrix[h*rowBytesB : (h+1)*rowBytesB]
		for d := 0; d < nA; d++ {
			if bitSet(rowA, d) {
				setBit(rowOut, d)
			}
		}
		for d := 0; d < nB; d++ {
			if bitSet(rowB, d) {
				setBit(rowOut, nA+d)
			}
		}
	}

	names := make([]string, 0, total)
	names = append(names, a.Names...)
	names = append(names, b.Names...)

	return &ClassicShard{
		TermSize:      a.TermSize,
		Canonicalize:  a.Canonicalize,
		SignatureSize: a.SignatureSize,
		NumHashes:     a.NumHashes,
		Names:         names,
		Matrix:        matrix,
	}, nil
}

// CombineAll hierarchically pairwise-combines shards into one, halving
// the number of shards each round (spec.md §4.5, §5: "pairwise shard
// combines run in parallel across independent pairs"). Odd shards out
// in a round carry forward unchanged to the next.
func CombineAll(shards []*ClassicShard) (*ClassicShard, error) {
	if len(shards) == 0 {
		return nil, cobserr.New(cobserr.Internal, "no shards to combine")
	}
	cur := shards
	for len(cur) > 1 {
		next := make([]*ClassicShard, (len(cur)+1)/2)
		if err := parallelfor.Range(len(cur)/2, 0, func(lo, hi int) error {
			for p := lo; p < hi; p++ {
				merged, err := Combine(cur[2*p], cur[2*p+1])
				if err != nil {
					return err
				}
				next[p] = merged
			}
			return nil
		}); err != nil {
			return nil, err
		}
		if len(cur)%2 == 1 {
			next[len(next)-1] = cur[len(cur)-1]
		}
		cur = next
	}
	return cur[0], nil
}
