package kmer

import (
	"bytes"
	"math/rand"
	"testing"
)

// TestPackUnpackRoundTrip is the k-mer round-trip property: for every
// k-mer s built from {A,C,G,T}, Unpack(Pack(s), k) == s.
func TestPackUnpackRoundTrip(t *testing.T) {
	letters := []byte{'A', 'C', 'G', 'T'}
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 200; trial++ {
		k := 1 + rng.Intn(31)
		s := make([]byte, k)
		for i := range s {
			s[i] = letters[rng.Intn(4)]
		}
		got := Unpack(Pack(s), k)
		if !bytes.Equal(got, s) {
			t.Fatalf("Unpack(Pack(%s)) = %s, want %s", s, got, s)
		}
	}
}

// TestCanonicalizeEqualsMinOfSelfAndReverseComplement asserts
// canonicalize(s) == min(s, reverse_complement(s)) lexicographically,
// for randomly generated pure k-mers.
func TestCanonicalizeEqualsMinOfSelfAndReverseComplement(t *testing.T) {
	letters := []byte{'A', 'C', 'G', 'T'}
	rng := rand.New(rand.NewSource(2))

	for trial := 0; trial < 200; trial++ {
		k := 1 + rng.Intn(31)
		s := make([]byte, k)
		for i := range s {
			s[i] = letters[rng.Intn(4)]
		}
		rc := ReverseComplement(s)
		want := s
		if bytes.Compare(rc, s) < 0 {
			want = rc
		}
		got := Canonicalize(append([]byte(nil), s...))
		if !bytes.Equal(got, want) {
			t.Fatalf("Canonicalize(%s) = %s, want %s (reverse complement %s)", s, got, want, rc)
		}
	}
}

// TestCanonicalizeFixture pins the literal fixture values: a
// non-canonical k-mer maps to its reverse complement, and a k-mer that
// is already canonical is a fixed point.
func TestCanonicalizeFixture(t *testing.T) {
	in := []byte("TGGAAAGTCTTTTACGCTGGGGTAAGAGTGA")
	want := "TCACTCTTACCCCAGCGTAAAAGACTTTCCA"
	if got := string(Canonicalize(in)); got != want {
		t.Fatalf("Canonicalize(%s) = %s, want %s", in, got, want)
	}

	fixed := []byte("AGGAAAGTCTTTTACGCTGGGGTAAGAGTGA")
	got := Canonicalize(append([]byte(nil), fixed...))
	if !bytes.Equal(got, fixed) {
		t.Fatalf("Canonicalize(%s) = %s, want fixed point %s", fixed, got, fixed)
	}
}

func TestReverseComplementInvolution(t *testing.T) {
	s := []byte("ACGTACGTTGCA")
	rc := ReverseComplement(s)
	rcrc := ReverseComplement(rc)
	if !bytes.Equal(s, rcrc) {
		t.Fatalf("reverse complement is not its own inverse: %s -> %s -> %s", s, rc, rcrc)
	}
}

func TestIsPure(t *testing.T) {
	if !IsPure([]byte("ACGT")) {
		t.Fatal("ACGT should be pure")
	}
	if IsPure([]byte("ACGN")) {
		t.Fatal("ACGN should not be pure")
	}
	if IsPure(nil) == false {
		t.Fatal("empty sequence is vacuously pure")
	}
}
