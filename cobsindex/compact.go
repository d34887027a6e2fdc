package cobsindex

import (
	"github.com/cobs-index/cobs/cobserr"
	"github.com/cobs-index/cobs/cobsfile"
)

// Compact is a SearchFile backed by several size-class partitions,
// each its own page-aligned flat matrix. A fetched row is the
// concatenation of one page-sized row from every partition.
//
// Construction guarantees every partition shares the same NumHashes
// (the on-disk format keeps the field per-partition for bit-exact
// compliance with the file layout, but a compact index built by this
// module never varies it, and openCompact rejects a file whose
// partitions disagree: a query probes every partition with one hash
// count, which would give false negatives in a partition built with
// fewer hashes).
type Compact struct {
	mf               *mappedFile
	header           *cobsfile.CompactHeader
	partitionOffsets []int
	rowSize          int
	numHashes        int
}

func openCompact(mf *mappedFile, buf []byte) (*Compact, error) {
	h, offsets, err := cobsfile.ReadCompactHeader(buf)
	if err != nil {
		mf.Close()
		return nil, err
	}
	if len(h.Partitions) == 0 {
		mf.Close()
		return nil, cobserr.New(cobserr.InvalidFormat, "compact index has no partitions")
	}
	numHashes := h.Partitions[0].NumHashes
	for _, p := range h.Partitions {
		if p.NumHashes != numHashes {
			mf.Close()
			return nil, cobserr.New(cobserr.Internal, "compact index partitions disagree on num_hashes")
		}
	}
	return &Compact{
		mf:               mf,
		header:           h,
		partitionOffsets: offsets,
		rowSize:          len(h.Partitions) * int(h.PageSize),
		numHashes:        int(numHashes),
	}, nil
}

func (c *Compact) TermSize() uint32   { return c.header.TermSize }
func (c *Compact) Canonicalize() bool { return c.header.Canonicalize }
func (c *Compact) NumHashes() int     { return c.numHashes }
func (c *Compact) RowSize() int       { return c.rowSize }
func (c *Compact) NumDocuments() int  { return len(c.header.FileNames) }
func (c *Compact) Names() []string    { return c.header.FileNames }
func (c *Compact) Close() error       { return c.mf.Close() }

// NumPartitions reports the number of size-class sub-shards.
func (c *Compact) NumPartitions() int { return len(c.header.Partitions) }

// PageSize is the fixed row width shared by every partition.
func (c *Compact) PageSize() uint64 { return c.header.PageSize }

// ReadRowInto reduces the raw hash h modulo each partition's own
// signature size — exactly once per partition, directly from h, never
// from an already-reduced value — and copies the partitions' page-sized
// rows back to back into dst. This single-mod-per-partition rule is the
// fix for the source's flagged double-modulo bug: an intermediate
// reduction by some index-wide size before the per-partition mod would
// scramble which row of a given partition a hash lands on.
func (c *Compact) ReadRowInto(h uint64, dst []byte) error {
	if len(dst) != c.rowSize {
		return cobserr.New(cobserr.Internal, "row buffer size mismatch")
	}
	buf := c.mf.bytes()
	page := int(c.header.PageSize)
	for p, part := range c.header.Partitions {
		idx := h % part.SignatureSize
		off := c.partitionOffsets[p] + int(idx)*page
		if off+page > len(buf) {
			return cobserr.New(cobserr.OutOfRange, "row offset out of bounds")
		}
		copy(dst[p*page:(p+1)*page], buf[off:off+page])
	}
	return nil
}
