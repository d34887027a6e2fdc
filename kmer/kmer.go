// Package kmer implements fixed-width k-mer handling: packing into a
// 2-bit encoding, canonicalization against the reverse complement, and
// purity tracking for letters outside {A,C,G,T}.
package kmer

// complement maps a nucleotide byte to its Watson-Crick complement.
// Letters outside {A,C,G,T} and their lowercase forms map to
// themselves, which marks the k-mer
// as impure (see IsPure) without rejecting it.
var complement = buildComplementTable()

func buildComplementTable() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	t['A'], t['T'] = 'T', 'A'
	t['C'], t['G'] = 'G', 'C'
	t['a'], t['t'] = 't', 'a'
	t['c'], t['g'] = 'g', 'c'
	return t
}

// code holds the 2-bit value assigned to each of {A,C,G,T}; any other
// byte maps to 0 and is treated as impure.
var code [256]byte

func init() {
	code['C'] = 1
	code['G'] = 2
	code['T'] = 3
}

var decode = [4]byte{'A', 'C', 'G', 'T'}

// IsPure reports whether every byte of s is one of A, C, G, T
// (case-insensitive is not supported: input is expected pre-uppercased
// by the term producer).
func IsPure(s []byte) bool {
	for _, c := range s {
		if c != 'A' && c != 'C' && c != 'G' && c != 'T' {
			return false
		}
	}
	return true
}

// ReverseComplement returns the reverse complement of s as a new slice.
func ReverseComplement(s []byte) []byte {
	out := make([]byte, len(s))
	n := len(s)
	for i, c := range s {
		out[n-1-i] = complement[c]
	}
	return out
}

// Canonicalize returns the lexicographic minimum of s and its reverse
// complement, short-circuiting the comparison from both ends at once
// so that no allocation is needed unless s itself is not canonical.
//
// The result aliases s when s is already canonical.
func Canonicalize(s []byte) []byte {
	n := len(s)
	lo, hi := 0, n-1
	for lo <= hi {
		a := s[lo]
		b := complement[s[hi]]
		if a < b {
			return s
		}
		if a > b {
			return ReverseComplement(s)
		}
		lo++
		hi--
	}
	// Palindromic under reverse-complement (or n == 0): s is its own
	// canonical form.
	return s
}

// Pack encodes a k-mer of letters in {A,C,G,T} into a machine word,
// 2 bits per letter, most-significant letter first. Impure letters
// pack as if they were 'A'; callers that need exactness for impure
// k-mers should keep the original bytes around (IsPure tells them
// when that matters).
func Pack(s []byte) uint64 {
	var w uint64
	for _, c := range s {
		w = w<<2 | uint64(code[c])
	}
	return w
}

// Unpack decodes a k-mer previously produced by Pack, given the
// original length k.
func Unpack(w uint64, k int) []byte {
	out := make([]byte, k)
	for i := k - 1; i >= 0; i-- {
		out[i] = decode[w&3]
		w >>= 2
	}
	return out
}
