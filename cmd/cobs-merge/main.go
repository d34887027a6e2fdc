// Command cobs-merge combines classic index shards into one, or splits
// a combined shard back into one shard per document.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/cobs-index/cobs/build"
)

func usage() {
	fmt.Fprintf(os.Stderr, "USAGE:\n  %s merge DST_PATH SHARD...\n  %s explode DST_DIR SHARD\n",
		filepath.Base(os.Args[0]), filepath.Base(os.Args[0]))
}

func main() {
	_, _ = maxprocs.Set()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "merge":
		err = mergeCmd(os.Args[2:])
	case "explode":
		err = explodeCmd(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func mergeCmd(args []string) error {
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}
	dst, paths := args[0], args[1:]
	if len(paths) == 1 && paths[0] == "-" {
		var err error
		paths, err = readLines(os.Stdin)
		if err != nil {
			return err
		}
		log.Printf("merging %d shard(s) from stdin", len(paths))
	}
	if err := build.MergeClassicFiles(dst, paths); err != nil {
		return err
	}
	log.Printf("wrote merged index %s", dst)
	return nil
}

func explodeCmd(args []string) error {
	if len(args) != 2 {
		usage()
		os.Exit(1)
	}
	dstDir, src := args[0], args[1]
	written, err := build.ExplodeClassicFile(dstDir, src)
	if err != nil {
		return err
	}
	log.Printf("exploded %s into %d shard(s)", src, len(written))
	return nil
}

func readLines(f *os.File) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	return lines, sc.Err()
}
