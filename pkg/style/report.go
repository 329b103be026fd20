package style

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/arthur-debert/formulary/pkg/errors"
)

// outputTail is how many lines of captured command output a failure shows.
const outputTail = 10

// RenderFailure explains err: the formula whose step failed, how it was
// reached and the reason, followed by the end of any captured output.
func RenderFailure(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	deepest := errors.Deepest(err)
	if deepest != "" {
		fmt.Fprintf(&b, "%s %s\n", ErrorStyle.Render("✗"), Bold(deepest)+" failed")
	} else {
		fmt.Fprintf(&b, "%s %s\n", ErrorStyle.Render("✗"), "error")
	}

	if chain := errors.GetChain(err); len(chain) > 1 {
		fmt.Fprintf(&b, "  %s %s\n", LabelStyle.Render("via"), strings.Join(chain, " → "))
	}
	fmt.Fprintf(&b, "  %s %s\n", LabelStyle.Render("reason"), reason(err))

	details := errors.GetErrorDetails(err)
	if status, ok := details["exit_status"]; ok {
		fmt.Fprintf(&b, "  %s %v\n", LabelStyle.Render("exit status"), status)
	}
	for _, stream := range []string{"stdout", "stderr"} {
		text, _ := details[stream].(string)
		if tail := Tail(text, outputTail); tail != "" {
			fmt.Fprintf(&b, "  %s\n%s\n", LabelStyle.Render(stream), Indent(MutedStyle.Render(tail), 2))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// reason is the innermost message, without code or chain prefix.
func reason(err error) string {
	var fe *errors.FormulaError
	if stderrors.As(err, &fe) {
		if fe.Wrapped != nil {
			return fe.Message + ": " + fe.Wrapped.Error()
		}
		return fe.Message
	}
	return err.Error()
}

// Tail returns the last n non-empty lines of s.
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return ""
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
