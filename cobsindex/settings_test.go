package cobsindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cobs-index/cobs"
	"github.com/cobs-index/cobs/cobsfile"
)

func writeTinyClassicIndex(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	h := cobsfile.ClassicHeader{
		TermSize:      20,
		Canonicalize:  true,
		SignatureSize: 3,
		NumHashes:     4,
		FileNames:     []string{"a", "b"},
	}
	if err := cobsfile.WriteClassicHeader(f, h); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(make([]byte, 3)); err != nil {
		t.Fatal(err)
	}
	if err := cobsfile.WriteInnerMagic(f, cobsfile.ClassicMagic); err != nil {
		t.Fatal(err)
	}
}

// TestOpenWithSettingsDisableCacheBypassesPool exercises the
// DisableCache knob: an open under DisableCache must not populate (or
// require) the shared handle pool, and must still read back correctly.
func TestOpenWithSettingsDisableCacheBypassesPool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classic.idx")
	writeTinyClassicIndex(t, path)

	sf, err := OpenWithSettings(path, cobs.Settings{DisableCache: true})
	if err != nil {
		t.Fatal(err)
	}
	defer sf.Close()

	if sf.NumDocuments() != 2 {
		t.Fatalf("NumDocuments = %d, want 2", sf.NumDocuments())
	}
	if sharedHandlePool().cache.Contains(path) {
		t.Fatal("DisableCache open left a handle in the shared pool")
	}
}

// TestOpenWithSettingsLoadCompleteIndexPagesIn exercises the
// LoadCompleteIndex knob: the mapping must be fully readable
// immediately after open, with every page already faulted in.
func TestOpenWithSettingsLoadCompleteIndexPagesIn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classic.idx")
	writeTinyClassicIndex(t, path)

	sf, err := OpenWithSettings(path, cobs.Settings{LoadCompleteIndex: true})
	if err != nil {
		t.Fatal(err)
	}
	defer sf.Close()

	dst := make([]byte, sf.RowSize())
	if err := sf.ReadRowInto(0, dst); err != nil {
		t.Fatal(err)
	}
}

// TestOpenReusesHandlePool is a regression guard for the cache-enabled
// path: opening the same index twice under default settings must not
// fail even though the second open finds the first open's handle
// already cached in the shared pool.
func TestOpenReusesHandlePool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classic.idx")
	writeTinyClassicIndex(t, path)

	sf1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer sf1.Close()

	sf2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer sf2.Close()

	if sf1.NumDocuments() != sf2.NumDocuments() {
		t.Fatalf("repeated open disagreed on document count: %d vs %d", sf1.NumDocuments(), sf2.NumDocuments())
	}
}
