// Command update-gazetteer regenerates the embedded gazetteer from the
// markdown gazetteer document.
//
// Usage:
//
//	go run ./cmd/update-gazetteer path/to/kentucky.md
//
// This writes ./gazetteer-data/kentucky.yaml and then validates it. Rebuild
// afterwards so the new data is embedded.
package main

import (
	"fmt"
	"os"

	"github.com/bluegrass-news/kygeo"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <markdown gazetteer>\n", os.Args[0])
		os.Exit(2)
	}

	fmt.Println("Regenerating gazetteer from markdown...")

	if err := kygeo.RegenerateGazetteer(os.Args[1], kygeo.DefaultSourceFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Validating...")
	if err := kygeo.ValidateGazetteer(os.Stdout, kygeo.WithSourceFile(kygeo.DefaultSourceFile)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Gazetteer written to %s.\n", kygeo.DefaultSourceFile)
}
