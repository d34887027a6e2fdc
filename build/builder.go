package build

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cobs-index/cobs"
	"github.com/cobs-index/cobs/bloom"
	"github.com/cobs-index/cobs/cobserr"
	"github.com/cobs-index/cobs/cobsfile"
	"github.com/cobs-index/cobs/docsrc"
	"github.com/cobs-index/cobs/parallelfor"
)

// Options configures a Builder. Zero values are filled in by
// SetDefaults.
type Options struct {
	// IndexDir is the directory the finished index is written into.
	IndexDir string
	// IndexName is the base file name (without extension) of the
	// finished index.
	IndexName string
	// TermSize is the k-mer length every document is windowed at.
	TermSize int
	// Canonicalize enables reverse-complement canonicalization.
	Canonicalize bool
	// FalsePositiveRate is the Bloom filter's target false-positive rate.
	FalsePositiveRate float64
	// NumHashes is the number of hash functions per k-mer.
	NumHashes int
	// Compact builds a page-aligned, size-class-partitioned compact
	// index instead of a single classic index.
	Compact bool
	// CompactPartitions is the number of size classes to use when
	// Compact is set; 0 picks DefaultCompactPartitions.
	CompactPartitions int
	// Parallelism bounds concurrent per-document signature construction.
	// Zero defers to Settings.ThreadCount().
	Parallelism int
	// Settings carries the process-wide Threads/LoadCompleteIndex/
	// DisableCache knobs (spec.md §6.4); only Threads affects
	// construction, as a fallback for an unset Parallelism.
	Settings cobs.Settings
}

// SetDefaults fills in reasonable defaults for unset fields.
func (o *Options) SetDefaults() {
	if o.TermSize == 0 {
		o.TermSize = 31
	}
	if o.FalsePositiveRate == 0 {
		o.FalsePositiveRate = 0.3
	}
	if o.NumHashes == 0 {
		o.NumHashes = 3
	}
	if o.Parallelism == 0 {
		o.Parallelism = o.Settings.ThreadCount()
	}
	if o.IndexName == "" {
		o.IndexName = "index"
	}
}

// IndexPath is the final path the finished index is renamed to.
func (o *Options) IndexPath() string {
	ext := ".cobs_classic"
	if o.Compact {
		ext = ".cobs_compact"
	}
	return filepath.Join(o.IndexDir, o.IndexName+ext)
}

type pendingDoc struct {
	name     string
	producer docsrc.TermProducer
}

// Builder accumulates documents and, on Finish, builds and atomically
// writes the index file: construction errors abort the whole batch and
// no partial file is left behind, matching spec.md §7's policy and
// sourcegraph-zoekt's builder.go temp-name/rename discipline.
type Builder struct {
	opts Options

	mu   sync.Mutex
	docs []pendingDoc

	shardLogger *lumberjack.Logger
}

// NewBuilder creates a Builder for opts, which is mutated in place by
// SetDefaults.
func NewBuilder(opts Options) (*Builder, error) {
	opts.SetDefaults()
	if opts.IndexDir == "" {
		return nil, cobserr.New(cobserr.OutOfRange, "builder: IndexDir must be set")
	}
	if err := os.MkdirAll(opts.IndexDir, 0o755); err != nil {
		return nil, cobserr.Wrap(cobserr.FileIO, "create index dir", err)
	}

	b := &Builder{
		opts: opts,
		shardLogger: &lumberjack.Logger{
			Filename:   filepath.Join(opts.IndexDir, "cobs-builder-shard-log.tsv"),
			MaxSize:    100, // megabytes
			MaxBackups: 5,
		},
	}
	return b, nil
}

// AddDocument registers a document to be indexed. producer is consumed
// lazily, during Finish.
func (b *Builder) AddDocument(name string, producer docsrc.TermProducer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs = append(b.docs, pendingDoc{name: name, producer: producer})
}

// Finish builds the complete index from every document added so far
// and writes it to Options.IndexPath, via a temporary file renamed
// into place only once the whole build has succeeded.
func (b *Builder) Finish() (path string, err error) {
	defer b.shardLogger.Close()

	b.mu.Lock()
	docs := b.docs
	b.mu.Unlock()

	if len(docs) == 0 {
		return "", cobserr.New(cobserr.Internal, "no documents added")
	}

	names := make([]string, len(docs))
	termCounts := make([]int, len(docs))
	for i, d := range docs {
		names[i] = d.name
	}

	// Pass 1: count each document's term stream, since every signature
	// built under one shared dimension (classic), or one shared
	// per-size-class dimension (compact), needs every member's count
	// known before any Bloom filter can be sized.
	if err := parallelfor.Range(len(docs), b.opts.Parallelism, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			n, err := countTerms(docs[i].producer, b.opts.TermSize)
			if err != nil {
				return err
			}
			termCounts[i] = n
		}
		return nil
	}); err != nil {
		return "", err
	}

	path = b.opts.IndexPath()
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return "", cobserr.Wrap(cobserr.FileIO, "create temp index file", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if b.opts.Compact {
		err = b.writeCompact(f, names, termCounts, docs)
	} else {
		err = b.writeClassic(f, names, termCounts, docs)
	}
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}

	if err = os.Rename(tmp, path); err != nil {
		return "", cobserr.Wrap(cobserr.FileIO, "rename temp index file into place", err)
	}
	b.shardLog("finished", path)
	return path, nil
}

func (b *Builder) writeClassic(f *os.File, names []string, termCounts []int, docs []pendingDoc) error {
	maxTerms := 0
	for _, n := range termCounts {
		if n > maxTerms {
			maxTerms = n
		}
	}
	m, err := bloom.Dimension(maxTerms, b.opts.NumHashes, b.opts.FalsePositiveRate)
	if err != nil {
		return err
	}

	sigs := make([]*bloom.Signature, len(docs))
	if err := parallelfor.Range(len(docs), b.opts.Parallelism, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			sig := bloom.NewSignature(m, b.opts.NumHashes)
			if err := docs[i].producer.ProcessTerms(b.opts.TermSize, func(term []byte) error {
				sig.Add(term)
				return nil
			}); err != nil {
				return err
			}
			sigs[i] = sig
			b.shardLog("signature", docs[i].name)
		}
		return nil
	}); err != nil {
		return err
	}

	shard, err := Transpose(uint32(b.opts.TermSize), b.opts.Canonicalize, b.opts.NumHashes, names, sigs)
	if err != nil {
		return err
	}
	h := cobsfile.ClassicHeader{
		TermSize:      shard.TermSize,
		Canonicalize:  shard.Canonicalize,
		SignatureSize: shard.SignatureSize,
		NumHashes:     shard.NumHashes,
		FileNames:     shard.Names,
	}
	if err := cobsfile.WriteClassicHeader(f, h); err != nil {
		return err
	}
	if _, err := f.Write(shard.Matrix); err != nil {
		return cobserr.Wrap(cobserr.FileIO, "write classic matrix", err)
	}
	return cobsfile.WriteInnerMagic(f, cobsfile.ClassicMagic)
}

func (b *Builder) writeCompact(f *os.File, names []string, termCounts []int, docs []pendingDoc) error {
	numPartitions := b.opts.CompactPartitions
	if numPartitions == 0 {
		numPartitions = DefaultCompactPartitions(len(names))
	}
	groups := SizeClassPartition(termCounts, numPartitions)

	maxDocs := 0
	for _, g := range groups {
		if len(g) > maxDocs {
			maxDocs = len(g)
		}
	}
	pageSize := CompactPageSize(maxDocs)

	plan := &CompactPlan{
		TermSize:     uint32(b.opts.TermSize),
		Canonicalize: b.opts.Canonicalize,
		PageSize:     pageSize,
	}
	for _, g := range groups {
		groupMax := 0
		for _, idx := range g {
			if termCounts[idx] > groupMax {
				groupMax = termCounts[idx]
			}
		}
		m, err := bloom.Dimension(groupMax, b.opts.NumHashes, b.opts.FalsePositiveRate)
		if err != nil {
			return err
		}

		groupNames := make([]string, len(g))
		groupSigs := make([]*bloom.Signature, len(g))
		if err := parallelfor.Range(len(g), b.opts.Parallelism, func(lo, hi int) error {
			for i := lo; i < hi; i++ {
				idx := g[i]
				groupNames[i] = names[idx]
				sig := bloom.NewSignature(m, b.opts.NumHashes)
				if err := docs[idx].producer.ProcessTerms(b.opts.TermSize, func(term []byte) error {
					sig.Add(term)
					return nil
				}); err != nil {
					return err
				}
				groupSigs[i] = sig
				b.shardLog("signature", docs[idx].name)
			}
			return nil
		}); err != nil {
			return err
		}

		part, err := BuildCompactPartition(b.opts.NumHashes, groupNames, groupSigs, pageSize, g)
		if err != nil {
			return err
		}
		plan.Partitions = append(plan.Partitions, part)
	}
	for i, summary := range plan.MembershipSummary() {
		b.shardLog(fmt.Sprintf("partition[%d] %s", i, summary), f.Name())
	}
	return plan.Write(f)
}

func (b *Builder) shardLog(action, name string) {
	if b.shardLogger == nil {
		return
	}
	b.shardLogger.Write([]byte(action + "\t" + name + "\n"))
}

func countTerms(p docsrc.TermProducer, termSize int) (int, error) {
	n := 0
	err := p.ProcessTerms(termSize, func([]byte) error {
		n++
		return nil
	})
	return n, err
}
