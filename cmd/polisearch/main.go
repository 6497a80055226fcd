// Package main provides the entry point for the polisearch CLI.
package main

import (
	"os"

	"github.com/polisearch/polisearch/cmd/polisearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
