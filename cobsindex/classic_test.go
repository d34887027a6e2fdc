package cobsindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cobs-index/cobs/cobsfile"
)

func TestClassicReadRowInto(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classic.idx")

	names := []string{"doc1", "doc2", "doc3"}
	const sigSize = 5
	rowBytes := (len(names) + 7) / 8

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	h := cobsfile.ClassicHeader{
		TermSize:      20,
		Canonicalize:  true,
		SignatureSize: sigSize,
		NumHashes:     4,
		FileNames:     names,
	}
	if err := cobsfile.WriteClassicHeader(f, h); err != nil {
		t.Fatal(err)
	}
	for row := 0; row < sigSize; row++ {
		if _, err := f.Write([]byte{byte(row + 1)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := cobsfile.WriteInnerMagic(f, cobsfile.ClassicMagic); err != nil {
		t.Fatal(err)
	}
	f.Close()

	sf, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer sf.Close()

	if sf.RowSize() != rowBytes {
		t.Fatalf("RowSize = %d, want %d", sf.RowSize(), rowBytes)
	}
	if sf.NumDocuments() != len(names) {
		t.Fatalf("NumDocuments = %d, want %d", sf.NumDocuments(), len(names))
	}

	dst := make([]byte, rowBytes)
	for row := uint64(0); row < sigSize; row++ {
		if err := sf.ReadRowInto(row, dst); err != nil {
			t.Fatal(err)
		}
		if dst[0] != byte(row+1) {
			t.Fatalf("row %d = %d, want %d", row, dst[0], row+1)
		}
	}

	// A raw hash larger than sigSize must wrap via a single mod.
	dst2 := make([]byte, rowBytes)
	if err := sf.ReadRowInto(sigSize+2, dst2); err != nil {
		t.Fatal(err)
	}
	if dst2[0] != byte(2+1) {
		t.Fatalf("wrapped row = %d, want %d", dst2[0], 3)
	}
}
