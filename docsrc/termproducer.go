// Package docsrc implements the term-producer contract construction
// drives documents through (spec.md §6.2): produce each term of a
// fixed size exactly once, in document order, handing the callback a
// borrowed slice valid only until it returns.
package docsrc

import "github.com/cobs-index/cobs/kmer"

// TermProducer is the collaborator contract construction consumes.
// Parsing a specific container format (FASTA/FASTQ/Cortex/plain text)
// is out of scope here; callers supply their own TermProducer,
// typically backed by one of those parsers plus the LRU file handle
// pool in package filepool for lazy, bounded-concurrency file access.
type TermProducer interface {
	// ProcessTerms calls cb once per term of length termSize, in
	// sequence order, stopping at the first error cb returns.
	ProcessTerms(termSize int, cb func(term []byte) error) error
}

// SequenceProducer is a TermProducer over an in-memory nucleotide
// sequence, windowing it into overlapping k-mers and, when Canonicalize
// is set, canonicalizing each one before handing it to the callback.
type SequenceProducer struct {
	Seq          []byte
	Canonicalize bool
}

// ProcessTerms windows Seq into overlapping terms of length termSize.
// Windows containing non-ACGT bytes are skipped, matching the original
// source's treatment of ambiguity codes as term boundaries rather than
// literal symbols.
func (p SequenceProducer) ProcessTerms(termSize int, cb func(term []byte) error) error {
	if termSize <= 0 || termSize > len(p.Seq) {
		return nil
	}
	for i := 0; i+termSize <= len(p.Seq); i++ {
		window := p.Seq[i : i+termSize]
		if !kmer.IsPure(window) {
			continue
		}
		term := window
		if p.Canonicalize {
			term = kmer.Canonicalize(window)
		}
		if err := cb(term); err != nil {
			return err
		}
	}
	return nil
}
