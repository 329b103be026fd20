package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/formulary/cmd/formulary"
	"github.com/arthur-debert/formulary/internal/version"
)

// Writes formulary(1) to stdout, or one page per command into the directory
// given as the only argument.
func main() {
	rootCmd := formulary.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "FORMULARY",
		Section: "1",
		Source:  "formulary " + version.Version,
		Manual:  "formulary manual",
	}

	var err error
	if len(os.Args) > 1 {
		if err = os.MkdirAll(os.Args[1], 0755); err == nil {
			err = doc.GenManTree(rootCmd, header, os.Args[1])
		}
	} else {
		err = doc.GenMan(rootCmd, header, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
