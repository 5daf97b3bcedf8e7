// Package main provides the CLI for flowline.
package main

import (
	"os"

	"github.com/leapstack-labs/flowline/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
