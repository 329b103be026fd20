package registry

import (
	"strings"

	"github.com/arthur-debert/formulary/pkg/errors"
)

type visitState int

const (
	unvisited visitState = iota
	visiting
	done
)

// CheckCycles walks the dependency graph depth-first and reports the first
// cycle found. Dependencies that are not registered are ignored here; they
// surface as missing dependencies at install time. Formulas are visited in
// name order so the reported cycle is stable.
func (r *Formulas) CheckCycles() error {
	state := make(map[string]visitState)
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, n := range stack {
				if n == name {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, stack[start:]...), name)
			err := errors.New(errors.ErrCyclicDependency, "dependency cycle detected").
				WithDetail("cycle", strings.Join(cycle, " -> "))
			err.Chain = cycle
			return err
		}

		f, ok := r.Lookup(name)
		if !ok {
			return nil
		}

		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range f.Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for _, name := range r.Names() {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}
