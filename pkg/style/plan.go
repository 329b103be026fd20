package style

import (
	"strings"

	"github.com/arthur-debert/formulary/pkg/installer"
)

// RenderPlan renders a dry-run plan under a heading.
func RenderPlan(target string, steps []installer.Step) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Install plan for "+target) + "\n")
	_ = installer.WritePlan(&b, steps)
	return strings.TrimRight(b.String(), "\n")
}
