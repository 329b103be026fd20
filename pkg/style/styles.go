package style

import (
	"github.com/charmbracelet/lipgloss"
)

// Base styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(HeadingColor).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Width(12)

	URLStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Underline(true)

	DependencyStyle = lipgloss.NewStyle().
			Foreground(DependencyColor)

	ChecksumStyle = lipgloss.NewStyle().
			Foreground(ChecksumColor)
)

// Indent pads every line of s by two spaces per level.
func Indent(s string, level int) string {
	return lipgloss.NewStyle().PaddingLeft(level * 2).Render(s)
}

func Bold(s string) string {
	return lipgloss.NewStyle().Bold(true).Render(s)
}
