package formulary

import (
	"os"
	"strings"
	"text/template"

	"github.com/arthur-debert/formulary/pkg/style"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// formatBold returns s in bold when stdout is a terminal.
func formatBold(s string) string {
	if !style.IsTerminal(os.Stdout) {
		return s
	}
	return pterm.Bold.Sprint(s)
}

func formatBoldUpper(s string) string {
	return formatBold(strings.ToUpper(s))
}

// initTemplateFormatting adds custom formatting functions to Cobra templates
func initTemplateFormatting() {
	cobra.AddTemplateFuncs(template.FuncMap{
		"bold":      formatBold,
		"upper":     strings.ToUpper,
		"boldUpper": formatBoldUpper,
	})
}
