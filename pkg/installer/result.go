package installer

import (
	"github.com/arthur-debert/formulary/pkg/runner"
)

// Result records what happened to one formula. Dependencies holds the
// results of the declared dependencies that were reached, in declared order.
type Result struct {
	Name    string
	Version string
	State   State

	// Skipped is set when the formula was already installed and nothing ran.
	Skipped bool

	// Marked is set once this run marked the formula installed. It stays set
	// when the test command fails afterwards.
	Marked bool

	Dependencies []*Result

	InstallOutput *runner.Output
	TestOutput    *runner.Output

	// Err is the failure of this formula's own step or of one of its
	// dependencies.
	Err error
}

// Succeeded reports whether the formula ended installed with no failure.
func (r *Result) Succeeded() bool {
	return r.State == StateInstalled && r.Err == nil
}

// Walk visits r and its dependency results depth-first, dependencies first.
func (r *Result) Walk(fn func(*Result)) {
	for _, dep := range r.Dependencies {
		dep.Walk(fn)
	}
	fn(r)
}

// Installed lists the formulas this run marked installed, in install order.
func (r *Result) Installed() []string {
	var names []string
	r.Walk(func(res *Result) {
		if res.Marked {
			names = append(names, res.Name)
		}
	})
	return names
}
