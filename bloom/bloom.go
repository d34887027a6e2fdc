// Package bloom sizes and fills the per-document Bloom filter signature
// that the rest of the index is built from (spec §4.2-4.3).
package bloom

import (
	"math"

	"github.com/cobs-index/cobs/cobserr"
	"github.com/cobs-index/cobs/khash"
)

// Dimension computes the number of bits m a Bloom filter needs to hold
// n elements under k hash functions at target false-positive rate p:
//
//	ratio = -k / ln(1 - p^(1/k))
//	m     = ceil(n * ratio)
//
// This is the same sizing formula the original cobs source computes in
// calc_signature_size; zoekt's bloom.go solves the dual problem
// (shrinking a fixed-size filter to hit a load factor) rather than
// sizing one from scratch, so only the diagnostic shape is reused here
// (see AverageLoad).
func Dimension(n int, numHashes int, fpr float64) (uint64, error) {
	if n < 0 {
		return 0, cobserr.New(cobserr.OutOfRange, "negative element count")
	}
	if numHashes <= 0 {
		return 0, cobserr.New(cobserr.OutOfRange, "numHashes must be positive")
	}
	if fpr <= 0 || fpr >= 1 {
		return 0, cobserr.New(cobserr.OutOfRange, "target false-positive rate must be in (0,1)")
	}
	if n == 0 {
		// A degenerate but legal filter: one word, nothing ever set.
		return 64, nil
	}

	k := float64(numHashes)
	denom := math.Log(1 - math.Pow(fpr, 1/k))
	if denom == 0 || math.IsNaN(denom) {
		return 0, cobserr.New(cobserr.OutOfRange, "degenerate false-positive rate for this hash count")
	}
	ratio := -k / denom
	m := math.Ceil(float64(n) * ratio)
	if m <= 0 || math.IsInf(m, 0) || m > float64(math.MaxUint64) {
		return 0, cobserr.New(cobserr.OutOfRange, "computed signature size is non-positive or overflows")
	}
	return uint64(m), nil
}

// AverageLoad returns the expected fraction of set bits in a filter of
// size m after n insertions under k hash functions:
//
//	1 - (1 - 1/m)^(k*n)
//
// The original source exposes this as a build-time saturation warning
// (cobs::calc_signature_size); it never made it into spec.md's body
// text but is cheap to keep since Dimension already has every input.
func AverageLoad(m uint64, numHashes, n int) float64 {
	if m == 0 {
		return 1
	}
	return 1 - math.Pow(1-1/float64(m), float64(numHashes)*float64(n))
}

// Signature is a Bloom filter bit vector of fixed size m bits, stored
// as ceil(m/8) bytes, bit d living at byte d/8, bit d%8 (LSB-first
// within the byte; see query package for why this convention matters
// at AND-reduction time).
type Signature struct {
	m         uint64
	numHashes int
	bits      []byte
}

// NewSignature allocates an empty signature of m bits under numHashes
// hash functions.
func NewSignature(m uint64, numHashes int) *Signature {
	return &Signature{
		m:         m,
		numHashes: numHashes,
		bits:      make([]byte, (m+7)/8),
	}
}

// Size returns the signature size in bits.
func (s *Signature) Size() uint64 { return s.m }

// Bits returns the raw byte buffer backing the signature.
func (s *Signature) Bits() []byte { return s.bits }

// Add hashes kmer under every seed and sets the resulting bits.
func (s *Signature) Add(kmer []byte) {
	var rows [64]uint64
	idx := rows[:s.numHashes]
	if s.numHashes > len(rows) {
		idx = make([]uint64, s.numHashes)
	}
	khash.RowIndices(kmer, s.numHashes, s.m, idx)
	for _, r := range idx {
		s.bits[r/8] |= 1 << (r % 8)
	}
}

// Test reports whether every hash of kmer lands on a set bit. False
// positives are possible by construction; false negatives are not,
// provided kmer was Add-ed (or collided with something that was).
func (s *Signature) Test(kmer []byte) bool {
	var rows [64]uint64
	idx := rows[:s.numHashes]
	if s.numHashes > len(rows) {
		idx = make([]uint64, s.numHashes)
	}
	khash.RowIndices(kmer, s.numHashes, s.m, idx)
	for _, r := range idx {
		if s.bits[r/8]&(1<<(r%8)) == 0 {
			return false
		}
	}
	return true
}

// Load returns the fraction of set bits, for diagnostics.
func (s *Signature) Load() float64 {
	total := 0
	for _, b := range s.bits {
		total += popcount8(b)
	}
	return float64(total) / float64(len(s.bits)*8)
}

func popcount8(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}
