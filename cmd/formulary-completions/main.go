package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthur-debert/formulary/cmd/formulary"
)

// Writes every shell completion script into the given directory, for
// packaging.
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <output-dir>\n", os.Args[0])
		os.Exit(1)
	}
	dir := os.Args[1]
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", dir, err)
		os.Exit(1)
	}

	rootCmd := formulary.NewRootCmd()
	targets := []struct {
		file string
		gen  func(f *os.File) error
	}{
		{"formulary.bash", func(f *os.File) error { return rootCmd.GenBashCompletionV2(f, true) }},
		{"_formulary", func(f *os.File) error { return rootCmd.GenZshCompletion(f) }},
		{"formulary.fish", func(f *os.File) error { return rootCmd.GenFishCompletion(f, true) }},
		{"formulary.ps1", func(f *os.File) error { return rootCmd.GenPowerShellCompletionWithDesc(f) }},
	}

	for _, t := range targets {
		if err := write(filepath.Join(dir, t.file), t.gen); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", t.file, err)
			os.Exit(1)
		}
	}
}

func write(path string, gen func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gen(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
