// Command kygeo detects Kentucky counties and cities in news articles.
package main

import (
	"fmt"
	"os"

	"github.com/bluegrass-news/kygeo/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
