// Package cobsindex implements the read side of an index artifact: a
// memory-mapped, read-only view plus the bulk row-fetch operation the
// query engine drives.
//
// Rather than one interface with virtual dispatch over both shapes,
// the classic and compact layouts are kept as distinct concrete types
// behind a small shared SearchFile interface (RowSize/NumHashes/
// ReadRowInto), so the hot fetch path in each can stay a flat loop the
// compiler can inline instead of going through an indirect call into a
// generic "row store."
package cobsindex

import (
	"github.com/cobs-index/cobs"
	"github.com/cobs-index/cobs/cobserr"
	"github.com/cobs-index/cobs/cobsfile"
)

// SearchFile is the capability set the query engine needs from either
// artifact shape.
type SearchFile interface {
	// TermSize is the k-mer length this index was built with.
	TermSize() uint32
	// Canonicalize reports whether k-mers were canonicalized at build time.
	Canonicalize() bool
	// NumHashes is the number of hash functions used per k-mer.
	NumHashes() int
	// RowSize is the byte length of one fetched row, as ReadRowInto fills it.
	RowSize() int
	// NumDocuments is the number of documents indexed.
	NumDocuments() int
	// Names returns the document names in index order.
	Names() []string
	// ReadRowInto fills dst (length must equal RowSize) with the row
	// addressed by the raw, unreduced hash value h. Each implementation
	// reduces h modulo its own signature size(s) internally, exactly
	// once per partition.
	ReadRowInto(h uint64, dst []byte) error
	// Close releases the memory mapping.
	Close() error
}

// Open memory-maps path under the default Settings (hardware
// parallelism, cache enabled, no eager page-in) and parses its header.
// Use OpenWithSettings to control those knobs explicitly.
func Open(path string) (SearchFile, error) {
	return OpenWithSettings(path, cobs.Default())
}

// OpenWithSettings memory-maps path under settings and parses its
// header, returning a Classic or Compact SearchFile depending on the
// artifact's inner magic.
//
// The classic and document artifacts' inner magic sits at the literal
// end of the file, so it can be recognized by a direct suffix check.
// The compact artifact's inner magic instead sits before its
// page-alignment padding (spec.md §6.1), with no fixed byte count
// between it and the end of the file, so a compact artifact is
// recognized by elimination: if the file doesn't end in the classic
// magic, it is parsed as compact, and ReadCompactHeader itself
// validates the compact magic at its expected offset.
func OpenWithSettings(path string, settings cobs.Settings) (SearchFile, error) {
	mf, err := openMapped(path, settings)
	if err != nil {
		return nil, err
	}
	buf := mf.bytes()

	if len(buf) >= len(cobsfile.ClassicMagic) &&
		string(buf[len(buf)-len(cobsfile.ClassicMagic):]) == cobsfile.ClassicMagic {
		return openClassic(mf, buf)
	}
	// openCompact closes mf itself on any failure, so Open must not
	// close it again here.
	sf, err := openCompact(mf, buf)
	if err != nil {
		return nil, cobserr.Wrap(cobserr.InvalidFormat, "unrecognized inner magic for "+path, err)
	}
	return sf, nil
}
