package installer

import (
	"fmt"
	"io"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/formula"
)

// Step is one formula an install would process, in execution order.
type Step struct {
	Formula *formula.Formula
	// RequiredBy is the formula that first pulled this one in; empty for the
	// requested formula.
	RequiredBy string
	Depth      int
}

// Plan lists what Install would do for f without fetching or running
// anything. Installed formulas are left out and every formula appears once.
// Missing and cyclic dependencies fail the same way Install fails.
func (i *Installer) Plan(f *formula.Formula, reg Registry) ([]Step, error) {
	p := &planner{
		reg:       reg,
		resolving: make(map[string]bool),
		planned:   make(map[string]bool),
	}
	if err := p.visit(f, "", 0); err != nil {
		return nil, err
	}
	i.logger.Debug().Str("formula", f.Name).Int("steps", len(p.steps)).Msg("Plan built")
	return p.steps, nil
}

type planner struct {
	reg       Registry
	resolving map[string]bool
	planned   map[string]bool
	steps     []Step
}

func (p *planner) visit(f *formula.Formula, parent string, depth int) error {
	if p.reg.IsInstalled(f.Name) || p.planned[f.Name] {
		return nil
	}
	if p.resolving[f.Name] {
		return errors.Newf(errors.ErrCyclicDependency,
			"dependency cycle: %s is already being installed", f.Name).WithFormula(f.Name)
	}
	p.resolving[f.Name] = true
	defer delete(p.resolving, f.Name)

	for _, name := range f.Dependencies {
		if p.reg.IsInstalled(name) {
			continue
		}
		dep, ok := p.reg.Lookup(name)
		if !ok {
			return errors.Newf(errors.ErrMissingDependency, "missing dependency %q", name).
				WithDetail("dependency", name).
				WithFormula(f.Name)
		}
		if err := p.visit(dep, f.Name, depth+1); err != nil {
			return errors.WithinDependency(err, f.Name)
		}
	}

	p.planned[f.Name] = true
	p.steps = append(p.steps, Step{Formula: f, RequiredBy: parent, Depth: depth})
	return nil
}

// WritePlan renders steps as a numbered list, one formula per line.
func WritePlan(w io.Writer, steps []Step) error {
	if len(steps) == 0 {
		_, err := fmt.Fprintln(w, "Nothing to install.")
		return err
	}
	for n, s := range steps {
		line := fmt.Sprintf("%d. %s", n+1, s.Formula)
		if s.RequiredBy != "" {
			line += " (required by " + s.RequiredBy + ")"
		}
		if s.Formula.HasTest() {
			line += " [test]"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
