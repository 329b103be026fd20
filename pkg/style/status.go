package style

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/installer"
	"github.com/pterm/pterm"
)

// Status of a formula as shown to the user.
type Status string

const (
	StatusInstalled Status = "installed" // installed by this run
	StatusSkipped   Status = "skipped"   // already installed
	StatusFailed    Status = "failed"
	StatusPending   Status = "pending" // not reached or planned
	StatusProvided  Status = "provided" // satisfied by the host
)

// StatusStyle returns the pterm style of a status badge.
func StatusStyle(status Status) *pterm.Style {
	switch status {
	case StatusInstalled:
		return pterm.NewStyle(pterm.BgGreen, pterm.FgWhite)
	case StatusFailed:
		return pterm.NewStyle(pterm.BgRed, pterm.FgWhite, pterm.Bold)
	case StatusPending:
		return pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	case StatusProvided:
		return pterm.NewStyle(pterm.FgCyan)
	default:
		return pterm.NewStyle(pterm.FgGray)
	}
}

// ResultStatus maps an install result to its display status. A result with
// no version was satisfied without a registered formula.
func ResultStatus(res *installer.Result) Status {
	switch {
	case res.Skipped && res.Version == "":
		return StatusProvided
	case res.Skipped:
		return StatusSkipped
	case res.State == installer.StateFailed:
		return StatusFailed
	case res.State == installer.StateInstalled:
		return StatusInstalled
	default:
		return StatusPending
	}
}

// RenderResultLine renders one formula line of an install report.
func RenderResultLine(res *installer.Result, depth int) string {
	status := ResultStatus(res)
	badge := StatusStyle(status).Sprint(fmt.Sprintf("%-9s", status))

	name := res.Name
	if res.Version != "" {
		name += " " + res.Version
	}

	var msg string
	switch status {
	case StatusInstalled:
		msg = "installed"
		if res.TestOutput != nil {
			msg += ", test passed"
		}
	case StatusSkipped:
		msg = "already installed"
	case StatusProvided:
		msg = "provided by the system"
	case StatusFailed:
		msg = failureSummary(res)
	default:
		msg = res.State.String()
	}

	return fmt.Sprintf("%s%s : %-24s : %s", strings.Repeat("    ", depth+1), badge, name, msg)
}

func failureSummary(res *installer.Result) string {
	if res.Marked {
		return "installed, test failed"
	}
	for _, dep := range res.Dependencies {
		if dep.State == installer.StateFailed {
			return "dependency " + dep.Name + " failed"
		}
	}
	switch errors.GetErrorCode(res.Err) {
	case errors.ErrMissingDependency:
		return fmt.Sprintf("missing dependency %v", errors.GetErrorDetails(res.Err)["dependency"])
	case errors.ErrCyclicDependency:
		return "dependency cycle"
	case errors.ErrFetchFailed:
		return "could not fetch source archive"
	case errors.ErrIntegrityMismatch:
		return "checksum mismatch"
	case errors.ErrInstallFailed:
		return "install command failed"
	case errors.ErrTestFailed:
		return "test command failed"
	case errors.ErrNotInstalled:
		return "not installed"
	default:
		return "failed"
	}
}

// RenderResult renders the whole install tree, dependencies first.
func RenderResult(res *installer.Result) string {
	var b strings.Builder
	writeResult(&b, res, 0)
	return strings.TrimRight(b.String(), "\n")
}

func writeResult(b *strings.Builder, res *installer.Result, depth int) {
	for _, dep := range res.Dependencies {
		writeResult(b, dep, depth+1)
	}
	b.WriteString(RenderResultLine(res, depth))
	b.WriteString("\n")
}
