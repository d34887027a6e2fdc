package cobsindex

import (
	"github.com/cobs-index/cobs/cobserr"
	"github.com/cobs-index/cobs/cobsfile"
)

// Classic is a SearchFile backed by a single flat bit matrix:
// signatureSize rows, one per hash index, each holding one bit per
// document.
type Classic struct {
	mf         *mappedFile
	header     *cobsfile.ClassicHeader
	dataOffset int
	rowBytes   int
}

func openClassic(mf *mappedFile, buf []byte) (*Classic, error) {
	h, dataOffset, err := cobsfile.ReadClassicHeader(buf)
	if err != nil {
		mf.Close()
		return nil, err
	}
	return &Classic{mf: mf, header: h, dataOffset: dataOffset, rowBytes: h.RowBytes()}, nil
}

func (c *Classic) TermSize() uint32   { return c.header.TermSize }
func (c *Classic) Canonicalize() bool { return c.header.Canonicalize }
func (c *Classic) NumHashes() int     { return int(c.header.NumHashes) }
func (c *Classic) RowSize() int       { return c.rowBytes }
func (c *Classic) NumDocuments() int  { return len(c.header.FileNames) }
func (c *Classic) Names() []string    { return c.header.FileNames }
func (c *Classic) Close() error       { return c.mf.Close() }

// SignatureSize is the number of rows in the classic matrix. The query
// engine never needs it directly (ReadRowInto reduces modulo it
// internally), but callers that rebuild the whole matrix — merging
// shards, for instance — need to know how many rows to walk.
func (c *Classic) SignatureSize() uint64 { return c.header.SignatureSize }

// ReadRowInto reduces the raw hash h modulo the single signature size
// and copies that row's bytes into dst.
func (c *Classic) ReadRowInto(h uint64, dst []byte) error {
	if len(dst) != c.rowBytes {
		return cobserr.New(cobserr.Internal, "row buffer size mismatch")
	}
	idx := h % c.header.SignatureSize
	off := c.dataOffset + int(idx)*c.rowBytes
	buf := c.mf.bytes()
	if off+c.rowBytes > len(buf) {
		return cobserr.New(cobserr.OutOfRange, "row offset out of bounds")
	}
	copy(dst, buf[off:off+c.rowBytes])
	return nil
}
