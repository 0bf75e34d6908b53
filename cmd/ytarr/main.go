// Package main is the entry point for the ytarr application.
package main

import (
	"os"

	"github.com/ytarr/ytarr/cmd/ytarr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
