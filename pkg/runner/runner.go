// Package runner executes install and test command lines.
package runner

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"os/exec"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/logging"
)

// Command is one command line to execute, verbatim.
type Command struct {
	Line string
	Dir  string
	// Env is appended to the current process environment.
	Env []string
}

// Output captures the result of a finished command.
type Output struct {
	ExitStatus int
	Stdout     string
	Stderr     string
}

// Success reports a zero exit status.
func (o Output) Success() bool {
	return o.ExitStatus == 0
}

// Runner executes commands. A command that ran and exited non-zero is not an
// error: the status is reported in Output. Errors mean the command could not
// be run at all.
type Runner interface {
	Run(cmd Command) (Output, error)
}

// Shell runs command lines through `<Shell> -c <line>` and blocks until the
// child exits. There is no timeout.
type Shell struct {
	Shell string

	// Stdout and Stderr, when set, receive the child's output as it is
	// produced in addition to the captured copy.
	Stdout io.Writer
	Stderr io.Writer
}

// NewShell creates a Shell runner; an empty shell means "sh".
func NewShell(shell string) *Shell {
	if shell == "" {
		shell = "sh"
	}
	return &Shell{Shell: shell}
}

func (s *Shell) Run(cmd Command) (Output, error) {
	logger := logging.GetLogger("runner")
	logger.Trace().Str("dir", cmd.Dir).Str("shell", s.Shell).Str("command", cmd.Line).Msg("Spawning")

	var stdout, stderr bytes.Buffer
	c := exec.Command(s.Shell, "-c", cmd.Line)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)
	c.Stdout = tee(&stdout, s.Stdout)
	c.Stderr = tee(&stderr, s.Stderr)

	err := c.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			out.ExitStatus = exitErr.ExitCode()
			logger.Debug().Int("exit", out.ExitStatus).Str("command", cmd.Line).Msg("Command exited non-zero")
			return out, nil
		}
		out.ExitStatus = -1
		return out, errors.Wrapf(err, errors.ErrInternal, "failed to run %q", cmd.Line)
	}
	return out, nil
}

func tee(buf *bytes.Buffer, live io.Writer) io.Writer {
	if live == nil {
		return buf
	}
	return io.MultiWriter(buf, live)
}
