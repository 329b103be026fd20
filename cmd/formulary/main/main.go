package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/formulary/cmd/formulary"
	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/style"
)

func main() {
	rootCmd := formulary.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, style.RenderFailure(err))
		os.Exit(errors.ExitCode(err))
	}
}
