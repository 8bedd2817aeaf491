// Command zonediff compares the assignment letters of two exported collections and
// prints the letters each one lacks.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	zgeojson "github.com/samirrijal/zonebuf/internal/adapters/geojson"
	"github.com/samirrijal/zonebuf/internal/core/usecases"
)

func main() {
	fs := pflag.NewFlagSet("zonediff", pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: zonediff <first.json> <second.json>")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(2)
	}

	first, err := zgeojson.ReadFile(fs.Arg(0))
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	second, err := zgeojson.ReadFile(fs.Arg(1))
	if err != nil {
		log.Fatalf("read: %v", err)
	}

	diff := usecases.CompareLetters(zgeojson.Letters(first), zgeojson.Letters(second))
	for _, l := range diff.MissingInSecond {
		fmt.Printf("missing in %s: %s\n", fs.Arg(1), l)
	}
	for _, l := range diff.MissingInFirst {
		fmt.Printf("missing in %s: %s\n", fs.Arg(0), l)
	}
	if !diff.Empty() {
		os.Exit(1)
	}
}
