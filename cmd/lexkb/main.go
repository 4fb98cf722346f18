// Package main provides the entry point for the lexkb CLI.
package main

import (
	"fmt"
	"os"

	"github.com/legalguardian/lexkb/cmd/lexkb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
