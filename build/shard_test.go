package build

import (
	"testing"

	"github.com/cobs-index/cobs/bloom"
)

func buildSig(m uint64, numHashes int, kmers ...[]byte) *bloom.Signature {
	s := bloom.NewSignature(m, numHashes)
	for _, w := range kmers {
		s.Add(w)
	}
	return s
}

func TestTransposeCorrectness(t *testing.T) {
	const m = 37
	sigs := []*bloom.Signature{
		buildSig(m, 4, []byte("ACGTACGT")),
		buildSig(m, 4, []byte("TTTTTTTT")),
		buildSig(m, 4, []byte("GGGGCCCC")),
	}
	names := []string{"a", "b", "c"}
	shard, err := Transpose(8, false, 4, names, sigs)
	if err != nil {
		t.Fatal(err)
	}

	rowBytes := shard.RowBytes()
	for h := uint64(0); h < m; h++ {
		row := shard.Matrix[int(h)*rowBytes : (int(h)+1)*rowBytes]
		for d, sig := range sigs {
			bits := sig.Bits()
			want := bits[h/8]&(1<<(h%8)) != 0
			got := bitSet(row, d)
			if got != want {
				t.Fatalf("shard_bit(%d,%d)=%v, want signature_bit=%v", h, d, got, want)
			}
		}
	}
}

func TestCombineCorrectness(t *testing.T) {
	const m = 29
	sigsA := []*bloom.Signature{
		buildSig(m, 4, []byte("ACGTACGT")),
		buildSig(m, 4, []byte("TTTTTTTT")),
	}
	sigsB := []*bloom.Signature{
		buildSig(m, 4, []byte("GGGGCCCC")),
		buildSig(m, 4, []byte("AAAACCCC")),
		buildSig(m, 4, []byte("CCCCGGGG")),
	}
	a, err := Transpose(8, true, 4, []string{"a0", "a1"}, sigsA)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Transpose(8, true, 4, []string{"b0", "b1", "b2"}, sigsB)
	if err != nil {
		t.Fatal(err)
	}

	combined, err := Combine(a, b)
	if err != nil {
		t.Fatal(err)
	}

	wantNames := []string{"a0", "a1", "b0", "b1", "b2"}
	if len(combined.Names) != len(wantNames) {
		t.Fatalf("got %d names, want %d", len(combined.Names), len(wantNames))
	}
	for i, n := range wantNames {
		if combined.Names[i] != n {
			t.Fatalf("name[%d] = %s, want %s", i, combined.Names[i], n)
		}
	}

	rowBytesA, rowBytesB := a.RowBytes(), b.RowBytes()
	rowBytesC := combined.RowBytes()
	for h := 0; h < int(m); h++ {
		rowA := a.Matrix[h*rowBytesA : (h+1)*rowBytesA]
		rowB := b.Matrix[h*rowBytesB : (h+1)*rowBytesB]
		rowC := combined.Matrix[h*rowBytesC : (h+1)*rowBytesC]
		for d := 0; d < len(sigsA); d++ {
			if bitSet(rowC, d) != bitSet(rowA, d) {
				t.Fatalf("row %d doc %d: combined bit diverges from A", h, d)
			}
		}
		for d := 0; d < len(sigsB); d++ {
			if bitSet(rowC, len(sigsA)+d) != bitSet(rowB, d) {
				t.Fatalf("row %d doc %d: combined bit diverges from B", h, d)
			}
		}
	}
}

func TestCombineRejectsMismatchedParameters(t *testing.T) {
	a := &ClassicShard{TermSize: 8, SignatureSize: 10, NumHashes: 4, Names: []string{"a"}, Matrix: make([]byte, 10)}
	b := &ClassicShard{TermSize: 9, SignatureSize: 10, NumHashes: 4, Names: []string{"b"}, Matrix: make([]byte, 10)}
	if _, err := Combine(a, b); err == nil {
		t.Fatal("expected IndexMismatch error for differing term size")
	}
}

func TestCombineAllHierarchical(t *testing.T) {
	const m = 17
	var shards []*ClassicShard
	for i := 0; i < 5; i++ {
		sig := buildSig(m, 2, []byte{byte('A' + i), 'C', 'G', 'T'})
		s, err := Transpose(4, false, 2, []string{string(rune('A' + i))}, []*bloom.Signature{sig})
		if err != nil {
			t.Fatal(err)
		}
		shards = append(shards, s)
	}

	merged, err := CombineAll(shards)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged.Names) != 5 {
		t.Fatalf("got %d names, want 5", len(merged.Names))
	}
	for i, n := range merged.Names {
		if n != string(rune('A'+i)) {
			t.Fatalf("name[%d] = %s, want %c", i, n, 'A'+i)
		}
	}
}
