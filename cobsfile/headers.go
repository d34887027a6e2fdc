package cobsfile

import (
	"fmt"
	"io"

	"github.com/cobs-index/cobs/cobserr"
)

// --- per-document signature file (inner magic "DOCUMENT") ---

// WriteDocumentSignature writes a complete per-document signature
// artifact: outer header, kmer size, newline-terminated name, raw bits,
// inner magic.
func WriteDocumentSignature(out io.Writer, kmerSize uint32, name string, bits []byte) error {
	if err := WriteOuterHeader(out); err != nil {
		return err
	}
	w := newWriter(out)
	w.u32(kmerSize)
	w.string(name)
	w.u8('\n')
	w.bytes(bits)
	if err := w.flush(); err != nil {
		return err
	}
	return WriteInnerMagic(out, DocumentMagic)
}

// ReadDocumentSignature parses a complete per-document signature
// artifact held entirely in buf.
func ReadDocumentSignature(buf []byte) (kmerSize uint32, name string, bits []byte, err error) {
	_, off, err := ReadOuterHeader(buf)
	if err != nil {
		return 0, "", nil, err
	}
	if err := CheckInnerMagic(buf, DocumentMagic); err != nil {
		return 0, "", nil, err
	}
	r := &reader{buf: buf, off: off}
	kmerSize, err = r.u32()
	if err != nil {
		return 0, "", nil, err
	}
	nlIdx := indexByte(buf[r.off:], '\n')
	if nlIdx < 0 {
		return 0, "", nil, cobserr.New(cobserr.InvalidFormat, "document name not terminated")
	}
	name = string(buf[r.off : r.off+nlIdx])
	r.off += nlIdx + 1
	end := len(buf) - len(DocumentMagic)
	if end < r.off {
		return 0, "", nil, cobserr.New(cobserr.InvalidFormat, "truncated document bits")
	}
	bits = buf[r.off:end]
	return kmerSize, name, bits, nil
}

// --- classic index file (inner magic "CLASSIC_INDEX") ---

// ClassicHeader holds the fixed fields of a classic index payload.
type ClassicHeader struct {
	TermSize      uint32
	Canonicalize  bool
	SignatureSize uint64
	NumHashes     uint64
	FileNames     []string
}

// RowBytes returns ceil(len(FileNames)/8), the byte width of one row.
func (h *ClassicHeader) RowBytes() int {
	return int((uint64(len(h.FileNames)) + 7) / 8)
}

// WriteClassicHeader writes everything up to (but not including) the
// raw bit matrix. Callers stream the matrix rows themselves, then call
// WriteInnerMagic(out, ClassicMagic).
func WriteClassicHeader(out io.Writer, h ClassicHeader) error {
	if err := WriteOuterHeader(out); err != nil {
		return err
	}
	nameBlob, nameSize := encodeNames(h.FileNames)

	w := newWriter(out)
	w.u32(h.TermSize)
	w.u8(boolByte(h.Canonicalize))
	w.u32(uint32(nameSize))
	w.u64(h.SignatureSize)
	w.u64(h.NumHashes)
	w.bytes(nameBlob)
	return w.flush()
}

// ReadClassicHeader parses a complete classic index artifact held
// entirely in buf (as it would be via a memory mapping) and returns the
// header plus the byte offset at which the raw matrix begins.
func ReadClassicHeader(buf []byte) (h *ClassicHeader, dataOffset int, err error) {
	_, off, err := ReadOuterHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	if err := CheckInnerMagic(buf, ClassicMagic); err != nil {
		return nil, 0, err
	}

	r := &reader{buf: buf, off: off}
	h = &ClassicHeader{}
	h.TermSize, err = r.u32()
	if err != nil {
		return nil, 0, err
	}
	canon, err := r.u8()
	if err != nil {
		return nil, 0, err
	}
	h.Canonicalize = canon != 0
	nameSize, err := r.u32()
	if err != nil {
		return nil, 0, err
	}
	h.SignatureSize, err = r.u64()
	if err != nil {
		return nil, 0, err
	}
	h.NumHashes, err = r.u64()
	if err != nil {
		return nil, 0, err
	}
	nameBlob, err := r.take(int(nameSize))
	if err != nil {
		return nil, 0, err
	}
	h.FileNames, err = splitNames(nameBlob)
	if err != nil {
		return nil, 0, err
	}

	dataOffset = r.off
	wantEnd := dataOffset + int(h.SignatureSize)*h.RowBytes() + len(ClassicMagic)
	if wantEnd != len(buf) {
		return nil, 0, cobserr.New(cobserr.InvalidFormat,
			fmt.Sprintf("classic index size mismatch: have %d bytes, want %d", len(buf), wantEnd))
	}
	return h, dataOffset, nil
}

// --- compact index file (inner magic "COMPACT_INDEX") ---

// PartitionDims holds the per-partition dimensions recorded in the
// compact header: every partition shares page_size and num_hashes may
// differ only if the caller chooses to (spec keeps num_hashes uniform
// per sub-shard, not necessarily across all of them).
type PartitionDims struct {
	SignatureSize uint64
	NumHashes     uint64
}

// CompactHeader holds the fixed fields of a compact index payload.
type CompactHeader struct {
	TermSize     uint32
	Canonicalize bool
	PageSize     uint64
	Partitions   []PartitionDims
	FileNames    []string
}

func (h *CompactHeader) fixedFieldsSize() int {
	// term_size(4) canonicalize(1) num_partitions(4) file_names_size(4) page_size(8)
	return 4 + 1 + 4 + 4 + 8 + 16*len(h.Partitions)
}

// WriteCompactHeader writes the outer header, fixed fields, partition
// dimension table, name list, inner magic, and zero-padding so that the
// first partition's data region begins on a page_size-aligned absolute
// file offset. Per spec.md §6.1, the compact index's inner magic
// ("COMPACT_INDEX") sits before the padding, not at the end of the
// file as it does for the document and classic artifacts, and the
// padding size is measured from the end of that magic word. Every
// later partition is then automatically page-aligned too, since each
// partition's own data size (signature_size_p * page_size) is itself a
// multiple of page_size.
//
// written reports the total number of bytes written by this call, so
// callers that stream partitions can track absolute file offsets
// without a Seek.
func WriteCompactHeader(out io.Writer, h CompactHeader) (written int64, err error) {
	if err := WriteOuterHeader(out); err != nil {
		return 0, err
	}
	headerSoFar := int64(len(OuterMagic) + 4)

	nameBlob, nameSize := encodeNames(h.FileNames)

	w := newWriter(out)
	w.u32(h.TermSize)
	w.u8(boolByte(h.Canonicalize))
	w.u32(uint32(len(h.Partitions)))
	w.u32(uint32(nameSize))
	w.u64(h.PageSize)
	for _, p := range h.Partitions {
		w.u64(p.SignatureSize)
		w.u64(p.NumHashes)
	}
	w.bytes(nameBlob)
	if err := w.flush(); err != nil {
		return 0, err
	}

	headerSoFar += int64(h.fixedFieldsSize()) + int64(nameSize)

	if err := WriteInnerMagic(out, CompactMagic); err != nil {
		return 0, err
	}
	headerSoFar += int64(len(CompactMagic))

	pad := int64(0)
	if h.PageSize > 0 {
		rem := headerSoFar % int64(h.PageSize)
		if rem != 0 {
			pad = int64(h.PageSize) - rem
		}
	}
	if pad > 0 {
		if _, err := out.Write(make([]byte, pad)); err != nil {
			return 0, err
		}
	}
	return headerSoFar + pad, nil
}

// ReadCompactHeader parses a complete compact index artifact held
// entirely in buf and returns the header plus the absolute byte offset
// of each partition's data region.
func ReadCompactHeader(buf []byte) (h *CompactHeader, partitionOffsets []int, err error) {
	_, off, err := ReadOuterHeader(buf)
	if err != nil {
		return nil, nil, err
	}

	r := &reader{buf: buf, off: off}
	h = &CompactHeader{}
	h.TermSize, err = r.u32()
	if err != nil {
		return nil, nil, err
	}
	canon, err := r.u8()
	if err != nil {
		return nil, nil, err
	}
	h.Canonicalize = canon != 0
	numPartitions, err := r.u32()
	if err != nil {
		return nil, nil, err
	}
	nameSize, err := r.u32()
	if err != nil {
		return nil, nil, err
	}
	h.PageSize, err = r.u64()
	if err != nil {
		return nil, nil, err
	}
	if h.PageSize == 0 {
		return nil, nil, cobserr.New(cobserr.OutOfRange, "page_size must be positive")
	}
	h.Partitions = make([]PartitionDims, numPartitions)
	for i := range h.Partitions {
		sz, err := r.u64()
		if err != nil {
			return nil, nil, err
		}
		nh, err := r.u64()
		if err != nil {
			return nil, nil, err
		}
		h.Partitions[i] = PartitionDims{SignatureSize: sz, NumHashes: nh}
	}
	nameBlob, err := r.take(int(nameSize))
	if err != nil {
		return nil, nil, err
	}
	h.FileNames, err = splitNames(nameBlob)
	if err != nil {
		return nil, nil, err
	}

	magicOff := int64(len(OuterMagic)+4) + int64(h.fixedFieldsSize()) + int64(nameSize)
	if err := CheckInnerMagicAt(buf, int(magicOff), CompactMagic); err != nil {
		return nil, nil, err
	}
	headerSoFar := magicOff + int64(len(CompactMagic))

	pad := int64(0)
	rem := headerSoFar % int64(h.PageSize)
	if rem != 0 {
		pad = int64(h.PageSize) - rem
	}
	dataStart := headerSoFar + pad
	if dataStart%int64(h.PageSize) != 0 {
		return nil, nil, cobserr.New(cobserr.Internal, "partition data region is not page aligned")
	}

	partitionOffsets = make([]int, numPartitions)
	cursor := dataStart
	for i, p := range h.Partitions {
		partitionOffsets[i] = int(cursor)
		cursor += int64(p.SignatureSize) * int64(h.PageSize)
	}
	if cursor != int64(len(buf)) {
		return nil, nil, cobserr.New(cobserr.InvalidFormat,
			fmt.Sprintf("compact index size mismatch: have %d bytes, want %d", len(buf), cursor))
	}
	return h, partitionOffsets, nil
}

// --- shared helpers ---

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func encodeNames(names []string) ([]byte, int) {
	var buf []byte
	for _, n := range names {
		buf = append(buf, n...)
		buf = append(buf, '\n')
	}
	return buf, len(buf)
}

func splitNames(blob []byte) ([]string, error) {
	var names []string
	start := 0
	for start < len(blob) {
		idx := indexByte(blob[start:], '\n')
		if idx < 0 {
			return nil, cobserr.New(cobserr.InvalidFormat, "file name list not newline-terminated")
		}
		names = append(names, string(blob[start:start+idx]))
		start += idx + 1
	}
	return names, nil
}
