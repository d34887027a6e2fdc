// Command cobs-query searches one or more COBS index files for
// approximate membership of a query sequence.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/cobs-index/cobs"
	"github.com/cobs-index/cobs/cobsindex"
	"github.com/cobs-index/cobs/query"
)

func main() {
	threshold := flag.Float64("threshold", 0.0, "minimum fraction of matching k-mer windows, in [0,1]")
	numResults := flag.Int("num_results", 0, "maximum number of results to print (0 = unlimited)")
	verbose := flag.Bool("v", false, "print the number of shards searched and matches found")
	threads := flag.Int("threads", 0, "worker count for search (0 = hardware parallelism)")
	loadCompleteIndex := flag.Bool("load_complete_index", false, "page in the whole index mapping eagerly at open time")
	disableCache := flag.Bool("disable_cache", false, "skip the shared LRU file-handle cache")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "USAGE: %s [options] QUERY_SEQUENCE INDEX_FILES...\n", filepath.Base(os.Args[0]))
		fmt.Fprintln(flag.CommandLine.Output(), "Options:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}

	_, _ = maxprocs.Set()

	q := []byte(strings.ToUpper(flag.Arg(0)))
	paths := flag.Args()[1:]

	settings := cobs.Settings{
		Threads:           *threads,
		LoadCompleteIndex: *loadCompleteIndex,
		DisableCache:      *disableCache,
	}

	var sfs []cobsindex.SearchFile
	for _, p := range paths {
		sf, err := cobsindex.OpenWithSettings(p, settings)
		if err != nil {
			log.Fatalf("%s: %v", p, err)
		}
		defer sf.Close()
		sfs = append(sfs, sf)
	}

	results, err := query.SearchAllWithSettings(sfs, q, *threshold, *numResults, settings)
	if err != nil {
		log.Fatal(err)
	}

	if *verbose {
		log.Printf("searched %d shard(s), %d match(es) at or above threshold", len(sfs), len(results))
	}
	for _, r := range results {
		fmt.Printf("%d\t%s\n", r.Score, r.Name)
	}
}
