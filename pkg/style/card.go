package style

import (
	"strings"

	"github.com/arthur-debert/formulary/pkg/formula"
	"github.com/charmbracelet/lipgloss"
)

// FormulaInfo is what the info card shows about one formula.
type FormulaInfo struct {
	Formula    *formula.Formula
	Installed  bool
	Dependents []string
}

// RenderFormulaCard renders a bordered summary of a formula.
func RenderFormulaCard(info FormulaInfo) string {
	f := info.Formula

	title := TitleStyle.Render(f.Name) + " " + MutedStyle.Render(f.Version)
	if info.Installed {
		title += " " + SuccessStyle.Render("(installed)")
	}

	rows := []string{title}
	if f.Description != "" {
		rows = append(rows, f.Description)
	}
	rows = append(rows, "")

	if f.Homepage != "" {
		rows = append(rows, row("homepage", URLStyle.Render(f.Homepage)))
	}
	rows = append(rows,
		row("source", f.URL),
		row("checksum", ChecksumStyle.Render(f.Checksum.String())),
		row("depends on", names(f.Dependencies)),
	)
	if len(info.Dependents) > 0 {
		rows = append(rows, row("needed by", names(info.Dependents)))
	}
	rows = append(rows, row("install", f.Install))
	if f.HasTest() {
		rows = append(rows, row("test", f.Test))
	}
	if f.Source != "" {
		rows = append(rows, row("defined in", MutedStyle.Render(f.Source)))
	}

	return CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), value)
}

func names(list []string) string {
	if len(list) == 0 {
		return MutedStyle.Render("none")
	}
	styled := make([]string, len(list))
	for i, n := range list {
		styled[i] = DependencyStyle.Render(n)
	}
	return strings.Join(styled, ", ")
}
