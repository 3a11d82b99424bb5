// Package main provides the goff CLI application.
// goff reads AMBER and GROMACS force field files into a normalized
// parameter store and writes them back in either format.
package main

import (
	"os"
)

var (
	// Version is set by build flags
	Version = "dev"
)

func main() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
