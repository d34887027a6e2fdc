// Package cobsfile implements the versioned, magic-word-bracketed file
// framing shared by every artifact kind the index produces: per-document
// signatures, classic indices, and compact indices (spec §6.1).
//
// Every artifact starts with an outer magic word and a version, and
// carries a payload-specific inner magic word: the document and classic
// artifacts end with it once the payload (whose length is fully
// determined by the fields inside it) has been written, while the
// compact index places it before its page-alignment padding and
// partition data.
// Absence or mismatch of either magic is fatal, per spec §3's framing
// invariant.
package cobsfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cobs-index/cobs/cobserr"
)

// OuterMagic brackets every artifact kind.
const OuterMagic = "INSIIN"

// Inner magics identify the payload kind.
const (
	DocumentMagic = "DOCUMENT"
	ClassicMagic  = "CLASSIC_INDEX"
	CompactMagic  = "COMPACT_INDEX"
)

// Version is the only on-disk format version this implementation
// writes or accepts.
const Version uint32 = 1

// writer is a small append-only helper over a bufio.Writer, mirroring
// the minimal reader/writer helpers zoekt's read.go uses to frame its
// own sections, adapted here to the fixed-field layout spec.md defines
// instead of a generic section table.
type writer struct {
	w   *bufio.Writer
	err error
}

func newWriter(w io.Writer) *writer {
	return &writer{w: bufio.NewWriter(w)}
}

func (w *writer) u8(v uint8) {
	if w.err != nil {
		return
	}
	w.err = w.w.WriteByte(v)
}

func (w *writer) u32(v uint32) {
	if w.err != nil {
		return
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, w.err = w.w.Write(b[:])
}

func (w *writer) u64(v uint64) {
	if w.err != nil {
		return
	}
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, w.err = w.w.Write(b[:])
}

func (w *writer) bytes(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

func (w *writer) string(s string) {
	w.bytes([]byte(s))
}

func (w *writer) flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// WriteOuterHeader writes the outer magic and version that begin every
// artifact.
func WriteOuterHeader(out io.Writer) error {
	w := newWriter(out)
	w.string(OuterMagic)
	w.u32(Version)
	return w.flush()
}

// WriteInnerMagic writes the payload-specific trailing magic that ends
// an artifact.
func WriteInnerMagic(out io.Writer, magic string) error {
	_, err := io.WriteString(out, magic)
	return err
}

// WriteNames writes a name list as newline-terminated entries, as used
// by both the classic and compact index payloads.
func WriteNames(out io.Writer, names []string) (int, error) {
	w := newWriter(out)
	n := 0
	for _, name := range names {
		w.string(name)
		w.u8('\n')
		n += len(name) + 1
	}
	if err := w.flush(); err != nil {
		return n, err
	}
	return n, nil
}

// reader parses a fixed-offset byte buffer, analogous in spirit to
// zoekt's read.go reader type but over a plain []byte since our
// payloads are a handful of fixed-width fields rather than a table of
// variable-length sections.
type reader struct {
	buf []byte
	off int
}

func (r *reader) u8() (uint8, error) {
	if r.off+1 > len(r.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if r.off+8 > len(r.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

func (r *reader) take(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// ReadOuterHeader validates the outer magic and version at the start
// of buf and returns the offset immediately following it.
func ReadOuterHeader(buf []byte) (version uint32, off int, err error) {
	if len(buf) < len(OuterMagic)+4 {
		return 0, 0, cobserr.New(cobserr.InvalidFormat, "file too short for outer header")
	}
	if string(buf[:len(OuterMagic)]) != OuterMagic {
		return 0, 0, cobserr.New(cobserr.InvalidFormat, "missing or mismatched outer magic")
	}
	off = len(OuterMagic)
	version = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	if version != Version {
		return 0, 0, cobserr.Wrap(cobserr.UnsupportedVersion,
			fmt.Sprintf("version %d", version), nil)
	}
	return version, off, nil
}

// CheckInnerMagic validates that buf ends with the given inner magic.
func CheckInnerMagic(buf []byte, magic string) error {
	if len(buf) < len(magic) || string(buf[len(buf)-len(magic):]) != magic {
		return cobserr.New(cobserr.InvalidFormat, "missing or mismatched inner magic "+magic)
	}
	return nil
}

// CheckInnerMagicAt validates that buf holds the given inner magic at a
// specific offset, for payload shapes (the compact index) where the
// inner magic sits before trailing data rather than at the very end of
// the file (spec.md §6.1: the compact index's padding is measured from
// the end of inner_magic, so the magic must precede it).
func CheckInnerMagicAt(buf []byte, off int, magic string) error {
	if off < 0 || off+len(magic) > len(buf) || string(buf[off:off+len(magic)]) != magic {
		return cobserr.New(cobserr.InvalidFormat, "missing or mismatched inner magic "+magic)
	}
	return nil
}
