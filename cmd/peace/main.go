// Command peace is the CLI entry point (spec §1, SPEC_FULL.md §0 "CLI").
package main

import (
	"fmt"
	"os"

	"github.com/peaceflow/peace/internal/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
