package build

import (
	"path/filepath"
	"testing"

	"github.com/cobs-index/cobs/cobsindex"
	"github.com/cobs-index/cobs/docsrc"
)

func TestMergeClassicFiles(t *testing.T) {
	dir := t.TempDir()

	var paths []string
	for i, seq := range []string{"ACGTACGTTGCA", "TTTTACGTACGA"} {
		b, err := NewBuilder(Options{
			IndexDir:          dir,
			IndexName:         string(rune('1' + i)),
			TermSize:          8,
			FalsePositiveRate: 0.05,
			NumHashes:         4,
		})
		if err != nil {
			t.Fatal(err)
		}
		b.AddDocument(string(rune('A'+i)), docsrc.SequenceProducer{Seq: []byte(seq)})
		path, err := b.Finish()
		if err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	dst := filepath.Join(dir, "merged.cobs_classic")
	if err := MergeClassicFiles(dst, paths); err != nil {
		t.Fatal(err)
	}

	sf, err := cobsindex.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer sf.Close()

	if sf.NumDocuments() != 2 {
		t.Fatalf("NumDocuments = %d, want 2", sf.NumDocuments())
	}
	names := sf.Names()
	if names[0] != "A" || names[1] != "B" {
		t.Fatalf("names = %v, want [A B]", names)
	}
}

func TestExplodeClassicFile(t *testing.T) {
	dir := t.TempDir()

	b, err := NewBuilder(Options{
		IndexDir:          dir,
		IndexName:         "combined",
		TermSize:          8,
		FalsePositiveRate: 0.05,
		NumHashes:         4,
	})
	if err != nil {
		t.Fatal(err)
	}
	b.AddDocument("A", docsrc.SequenceProducer{Seq: []byte("ACGTACGTTGCA")})
	b.AddDocument("B", docsrc.SequenceProducer{Seq: []byte("TTTTACGTACGA")})
	src, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}

	explodeDir := filepath.Join(dir, "exploded")
	written, err := ExplodeClassicFile(explodeDir, src)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 2 {
		t.Fatalf("got %d exploded shards, want 2", len(written))
	}

	for _, p := range written {
		sf, err := cobsindex.Open(p)
		if err != nil {
			t.Fatal(err)
		}
		if sf.NumDocuments() != 1 {
			t.Fatalf("%s: NumDocuments = %d, want 1", p, sf.NumDocuments())
		}
		sf.Close()
	}
}
