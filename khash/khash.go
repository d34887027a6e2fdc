// Package khash provides the single hash family used on both the
// construction and query side of a signature index: an xxh64-based
// hash, independently seeded per hash function.
//
// The index is only correct if construction and query hash bit-for-bit
// identically, so this is the one place that hashing happens.
package khash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// RawRowHash returns the unreduced xxh64 stream for the i-th hash
// function (seed i) over kmer. Callers reduce it modulo whatever
// signature size applies (a single signature for a classic index, or a
// per-partition signature size for a compact one) with exactly one mod
// operation; see RowIndex and the cobsindex package's compact reader,
// which must never reduce a hash twice (the source this was ported
// from had a double-modulo bug here — see cobsindex's regression
// test).
//
// The seed is streamed into the xxhash digest ahead of the k-mer bytes
// (the same Digest-based streaming idiom used to hash composite keys
// in the compactindexsized/preindex packages this is grounded on),
// which gives each seed an independent, reproducible xxh64 stream
// without needing a seeded-constructor variant of the hash.
func RawRowHash(kmer []byte, seed uint64) uint64 {
	return sum(kmer, seed)
}

// RowIndex returns the row index that the i-th hash function (seed i)
// assigns to kmer, within a signature of m bits. It is RawRowHash
// reduced by m exactly once.
func RowIndex(kmer []byte, seed uint64, m uint64) uint64 {
	if m == 0 {
		return 0
	}
	return RawRowHash(kmer, seed) % m
}

// RowIndices fills dst (which must have length numHashes) with the row
// index produced by each of seeds 0..numHashes-1.
func RowIndices(kmer []byte, numHashes int, m uint64, dst []uint64) {
	for i := 0; i < numHashes; i++ {
		dst[i] = RowIndex(kmer, uint64(i), m)
	}
}

// RawRowHashes fills dst (which must have length numHashes) with the
// unreduced hash produced by each of seeds 0..numHashes-1, for callers
// (the compact search path) that need to apply their own per-partition
// modulus.
func RawRowHashes(kmer []byte, numHashes int, dst []uint64) {
	for i := 0; i < numHashes; i++ {
		dst[i] = RawRowHash(kmer, uint64(i))
	}
}

var digestPool = newPool()

func sum(kmer []byte, seed uint64) uint64 {
	d := digestPool.get()
	defer digestPool.put(d)

	var seedBuf [8]byte
	binary.BigEndian.PutUint64(seedBuf[:], seed)

	d.Reset()
	_, _ = d.Write(seedBuf[:])
	_, _ = d.Write(kmer)
	return d.Sum64()
}

// pool is a tiny free-list of *xxhash.Digest so that query-time hot
// loops (one Digest per row lookup) don't allocate. Row buffers during
// query are thread-local scratch (spec: "Row buffers are thread-local
// scratch during query"); this pool gives the same property to the
// hasher itself.
type pool struct {
	ch chan *xxhash.Digest
}

func newPool() *pool {
	return &pool{ch: make(chan *xxhash.Digest, 64)}
}

func (p *pool) get() *xxhash.Digest {
	select {
	case d := <-p.ch:
		return d
	default:
		return xxhash.New()
	}
}

func (p *pool) put(d *xxhash.Digest) {
	select {
	case p.ch <- d:
	default:
	}
}
