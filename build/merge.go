package build

import (
	"os"
	"path/filepath"

	"github.com/cobs-index/cobs/cobserr"
	"github.com/cobs-index/cobs/cobsfile"
	"github.com/cobs-index/cobs/cobsindex"
)

// LoadClassicShard reads a complete classic index file at path back
// into its in-memory ClassicShard form, for merging or re-partitioning.
func LoadClassicShard(path string) (*ClassicShard, error) {
	sf, err := cobsindex.Open(path)
	if err != nil {
		return nil, err
	}
	defer sf.Close()

	c, ok := sf.(*cobsindex.Classic)
	if !ok {
		return nil, cobserr.New(cobserr.InvalidFormat, path+" is not a classic index")
	}

	rowBytes := c.RowSize()
	m := c.SignatureSize()
	matrix := make([]byte, int(m)*rowBytes)
	row := make([]byte, rowBytes)
	for h := uint64(0); h < m; h++ {
		if err := c.ReadRowInto(h, row); err != nil {
			return nil, err
		}
		copy(matrix[int(h)*rowBytes:(int(h)+1)*rowBytes], row)
	}

	return &ClassicShard{
		TermSize:      c.TermSize(),
		Canonicalize:  c.Canonicalize(),
		SignatureSize: m,
		NumHashes:     uint64(c.NumHashes()),
		Names:         c.Names(),
		Matrix:        matrix,
	}, nil
}

// MergeClassicFiles combines the classic index files at paths into one
// and atomically writes the result to dstPath, following the same
// temp-name/rename discipline as Builder.Finish (spec.md §7: no
// partial files left behind on error).
func MergeClassicFiles(dstPath string, paths []string) (err error) {
	if len(paths) == 0 {
		return cobserr.New(cobserr.Internal, "no shards to merge")
	}

	shards := make([]*ClassicShard, len(paths))
	for i, p := range paths {
		s, err := LoadClassicShard(p)
		if err != nil {
			return err
		}
		shards[i] = s
	}

	merged, err := CombineAll(shards)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return cobserr.Wrap(cobserr.FileIO, "create merge output dir", err)
	}
	tmp := dstPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return cobserr.Wrap(cobserr.FileIO, "create temp merged file", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	h := cobsfile.ClassicHeader{
		TermSize:      merged.TermSize,
		Canonicalize:  merged.Canonicalize,
		SignatureSize: merged.SignatureSize,
		NumHashes:     merged.NumHashes,
		FileNames:     merged.Names,
	}
	if err = cobsfile.WriteClassicHeader(f, h); err != nil {
		f.Close()
		return err
	}
	if _, err = f.Write(merged.Matrix); err != nil {
		f.Close()
		return cobserr.Wrap(cobserr.FileIO, "write merged matrix", err)
	}
	if err = cobsfile.WriteInnerMagic(f, cobsfile.ClassicMagic); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return cobserr.Wrap(cobserr.FileIO, "close temp merged file", err)
	}

	if err = os.Rename(tmp, dstPath); err != nil {
		return cobserr.Wrap(cobserr.FileIO, "rename merged file into place", err)
	}
	return nil
}

// ExplodeClassicFile splits a combined classic index back into one
// single-document classic index per member document, written into
// dstDir. It inverts MergeClassicFiles when every merged input held a
// single document, useful for
// re-partitioning a shard that was combined too aggressively.
func ExplodeClassicFile(dstDir, srcPath string) ([]string, error) {
	shard, err := LoadClassicShard(srcPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return nil, cobserr.Wrap(cobserr.FileIO, "create explode output dir", err)
	}

	var written []string
	for d, name := range shard.Names {
		dstPath := filepath.Join(dstDir, sanitizeFileName(name)+".cobs_classic")
		if err := writeSingleDocumentClassicShard(dstPath, shard, d); err != nil {
			return written, err
		}
		written = append(written, dstPath)
	}
	return written, nil
}

func writeSingleDocumentClassicShard(dstPath string, shard *ClassicShard, d int) (err error) {
	rowBytes := shard.RowBytes()
	matrix := make([]byte, int(shard.SignatureSize))
	for h := uint64(0); h < shard.SignatureSize; h++ {
		row := shard.Matrix[int(h)*rowBytes : (int(h)+1)*rowBytes]
		if bitSet(row, d) {
			matrix[h] = 1
		}
	}

	tmp := dstPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return cobserr.Wrap(cobserr.FileIO, "create temp exploded file", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	h := cobsfile.ClassicHeader{
		TermSize:      shard.TermSize,
		Canonicalize:  shard.Canonicalize,
		SignatureSize: shard.SignatureSize,
		NumHashes:     shard.NumHashes,
		FileNames:     []string{shard.Names[d]},
	}
	if err = cobsfile.WriteClassicHeader(f, h); err != nil {
		f.Close()
		return err
	}
	if _, err = f.Write(matrix); err != nil {
		f.Close()
		return cobserr.Wrap(cobserr.FileIO, "write exploded matrix", err)
	}
	if err = cobsfile.WriteInnerMagic(f, cobsfile.ClassicMagic); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return cobserr.Wrap(cobserr.FileIO, "close temp exploded file", err)
	}
	if err = os.Rename(tmp, dstPath); err != nil {
		return cobserr.Wrap(cobserr.FileIO, "rename exploded file into place", err)
	}
	return nil
}

func sanitizeFileName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-' || r == '_' || r == '.':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "doc"
	}
	return string(out)
}
