// Package cobserr defines the error kinds shared across construction,
// file framing, and query, so callers can discriminate failure modes
// with errors.As instead of string matching.
package cobserr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. See spec §7 for the policy each kind implies.
type Kind int

const (
	// FileIO covers open/read/write/map failures; the OS error is
	// wrapped, not discarded.
	FileIO Kind = iota
	// InvalidFormat covers a missing or mismatched magic word.
	InvalidFormat
	// UnsupportedVersion covers a file version this build doesn't know.
	UnsupportedVersion
	// IndexMismatch covers a query whose k-mer size or canonicalize
	// contract disagrees with the index header.
	IndexMismatch
	// QueryTooShort covers |Q| < term_size.
	QueryTooShort
	// OutOfRange covers a computed signature size that overflows or is
	// non-positive, or a page size that fails the required divisibility.
	OutOfRange
	// Internal covers invariant violations caught by assertions in
	// construction or combine.
	Internal
)

func (k Kind) String() string {
	switch k {
	case FileIO:
		return "file_io"
	case InvalidFormat:
		return "invalid_format"
	case UnsupportedVersion:
		return "unsupported_version"
	case IndexMismatch:
		return "index_mismatch"
	case QueryTooShort:
		return "query_too_short"
	case OutOfRange:
		return "out_of_range"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a typed error carrying one of the Kind values above.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(k Kind, msg string) error {
	return &Error{Kind: k, Msg: msg}
}

// Wrap builds an Error of the given kind around a lower-level error.
func Wrap(k Kind, msg string, err error) error {
	return &Error{Kind: k, Msg: msg, Err: err}
}

// Is reports whether err is (or wraps) a *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
