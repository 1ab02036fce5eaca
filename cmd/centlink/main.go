// Package main is the entry point for the centlink CLI.
package main

import (
	"os"

	"github.com/centlink/centlink/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
