package style

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"
)

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ColorEnabled decides whether output to f gets colors: NO_COLOR wins, then
// pipes and redirects, then the terminal's color profile.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !IsTerminal(f) {
		return false
	}
	return termenv.NewOutput(f).EnvColorProfile() != termenv.Ascii
}

// Setup configures pterm and lipgloss for output written to f.
func Setup(f *os.File) {
	SetColor(ColorEnabled(f))
}

// SetColor turns styling on or off for both renderers.
func SetColor(enabled bool) {
	if enabled {
		pterm.EnableColor()
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
		return
	}
	pterm.DisableColor()
	lipgloss.SetColorProfile(termenv.Ascii)
}
