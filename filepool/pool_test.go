package filepool

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPoolEvictsAndCloses(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 3; i++ {
		p := filepath.Join(dir, string(rune('a'+i)))
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}

	p, err := New(2)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	f0, err := p.Get(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Get(paths[1]); err != nil {
		t.Fatal(err)
	}
	if p.Len() != 2 {
		t.Fatalf("Len = %d, want 2", p.Len())
	}

	// Evicts paths[0]'s handle (capacity 2).
	if _, err := p.Get(paths[2]); err != nil {
		t.Fatal(err)
	}
	if p.Len() != 2 {
		t.Fatalf("Len = %d, want 2", p.Len())
	}

	// f0 should now be closed; reading from it must fail.
	if _, err := f0.Read(make([]byte, 1)); err == nil {
		t.Fatal("expected evicted handle to be closed")
	}
}

func TestDefaultCapacityPositive(t *testing.T) {
	if DefaultCapacity() < 1 {
		t.Fatal("DefaultCapacity must be at least 1")
	}
}
