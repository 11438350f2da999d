// Package main is the entry point for the plecoise CLI.
package main

import (
	"os"

	"github.com/f3rmion/plecoise/cmd/plecoise/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
