// Command cobs-index builds a COBS signature index from one or more
// FASTA files.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/cobs-index/cobs/build"
	"github.com/cobs-index/cobs/docsrc"
)

func main() {
	indexDir := flag.String("index_dir", filepath.Join(os.Getenv("HOME"), ".cobs"), "directory the finished index is written into")
	indexName := flag.String("index_name", "index", "base file name (without extension) of the finished index")
	termSize := flag.Int("term_size", 31, "k-mer length")
	canonicalize := flag.Bool("canonicalize", true, "canonicalize k-mers to their reverse-complement minimum")
	fpr := flag.Float64("false_positive_rate", 0.3, "target Bloom filter false-positive rate")
	numHashes := flag.Int("num_hashes", 3, "number of hash functions per k-mer")
	compact := flag.Bool("compact", false, "build a page-aligned, size-class-partitioned compact index")
	compactPartitions := flag.Int("compact_partitions", 0, "number of size classes for a compact index (0 picks a default)")
	parallelism := flag.Int("parallelism", 0, "concurrent document signature construction (0 picks GOMAXPROCS)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "USAGE: %s [options] FASTA_FILES...\n", filepath.Base(os.Args[0]))
		fmt.Fprintln(flag.CommandLine.Output(), "Options:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	// Tune GOMAXPROCS to match the container's CPU quota.
	_, _ = maxprocs.Set()

	opts := build.Options{
		IndexDir:          *indexDir,
		IndexName:         *indexName,
		TermSize:          *termSize,
		Canonicalize:      *canonicalize,
		FalsePositiveRate: *fpr,
		NumHashes:         *numHashes,
		Compact:           *compact,
		CompactPartitions: *compactPartitions,
		Parallelism:       *parallelism,
	}

	b, err := build.NewBuilder(opts)
	if err != nil {
		log.Fatal(err)
	}

	for _, fn := range flag.Args() {
		if err := addFastaFile(b, fn, *canonicalize); err != nil {
			log.Fatalf("%s: %v", fn, err)
		}
	}

	path, err := b.Finish()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote index %s (%s)", path, humanizedSize(path))
}

func humanizedSize(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return "unknown size"
	}
	return humanize.Bytes(uint64(fi.Size()))
}

// addFastaFile registers every record of a FASTA file as one document.
// Parsing the on-disk format is ambient CLI plumbing, not part of the
// indexing algorithm itself: docsrc.SequenceProducer only needs a
// decoded in-memory sequence.
func addFastaFile(b *build.Builder, path string, canonicalize bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var name string
	var seq strings.Builder
	flush := func() {
		if name != "" && seq.Len() > 0 {
			b.AddDocument(name, docsrc.SequenceProducer{
				Seq:          []byte(strings.ToUpper(seq.String())),
				Canonicalize: canonicalize,
			})
		}
		seq.Reset()
	}

	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, ">") {
			flush()
			name = strings.TrimSpace(strings.TrimPrefix(line, ">"))
			if fields := strings.Fields(name); len(fields) > 0 {
				name = fields[0]
			}
			continue
		}
		seq.WriteString(strings.TrimSpace(line))
	}
	flush()
	return sc.Err()
}
