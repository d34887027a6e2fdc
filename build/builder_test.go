package build

import (
	"path/filepath"
	"testing"

	"github.com/cobs-index/cobs/cobsindex"
	"github.com/cobs-index/cobs/docsrc"
	"github.com/cobs-index/cobs/query"
)

func TestBuilderClassicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBuilder(Options{
		IndexDir:          dir,
		IndexName:         "test",
		TermSize:          8,
		Canonicalize:      false,
		FalsePositiveRate: 0.05,
		NumHashes:         4,
	})
	if err != nil {
		t.Fatal(err)
	}

	seq := "ACGTACGTTGCA"
	b.AddDocument("A", docsrc.SequenceProducer{Seq: []byte(seq)})
	b.AddDocument("B", docsrc.SequenceProducer{Seq: []byte(seq[:10])})

	path, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "test.cobs_classic") {
		t.Fatalf("unexpected path %s", path)
	}

	sf, err := cobsindex.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer sf.Close()

	if sf.NumDocuments() != 2 {
		t.Fatalf("NumDocuments = %d, want 2", sf.NumDocuments())
	}

	results, err := query.Search(sf, []byte(seq), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	scores := map[string]uint16{}
	for _, r := range results {
		scores[r.Name] = r.Score
	}
	if scores["A"] < scores["B"] {
		t.Fatalf("doc A (superset) scored lower than doc B: %v", scores)
	}
}

func TestBuilderCompactRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBuilder(Options{
		IndexDir:          dir,
		IndexName:         "test",
		TermSize:          8,
		FalsePositiveRate: 0.05,
		NumHashes:         4,
		Compact:           true,
		CompactPartitions: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	for i, seq := range []string{"ACGTACGTTGCA", "TTTTACGTACGA", "GGGGACGTTTAA", "CCCCACGTTTGG"} {
		b.AddDocument(string(rune('A'+i)), docsrc.SequenceProducer{Seq: []byte(seq)})
	}

	path, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}

	sf, err := cobsindex.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer sf.Close()

	if sf.NumDocuments() != 4 {
		t.Fatalf("NumDocuments = %d, want 4", sf.NumDocuments())
	}

	c, ok := sf.(*cobsindex.Compact)
	if !ok {
		t.Fatalf("expected *cobsindex.Compact, got %T", sf)
	}
	if c.PageSize()%8 != 0 {
		t.Fatalf("page size %d not byte-aligned", c.PageSize())
	}

	if _, err := query.Search(sf, []byte("ACGTACGTTGCA"), 0, 0); err != nil {
		t.Fatal(err)
	}
}
