// Package main provides the entry point for the pyre client CLI.
package main

import (
	"fmt"
	"os"

	"github.com/pyrecheck/pyre-client/cmd/pyre/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
