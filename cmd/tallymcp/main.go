// Package main provides the entry point for the tallymcp CLI.
package main

import (
	"os"

	"github.com/tallykit/tallymcp/cmd/tallymcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
