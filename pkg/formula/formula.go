// Package formula defines the formula record: the immutable descriptor of one
// installable package, and the loaders that parse it from TOML or YAML files.
package formula

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/hashutil"
)

// Formula describes one installable package. A Formula is built once by
// New or a loader and must not be mutated afterwards.
type Formula struct {
	Name         string
	Description  string
	Homepage     string
	URL          string
	Checksum     hashutil.Checksum
	Version      string
	Dependencies []string
	Install      string
	Test         string

	// Source is the descriptor file the formula was loaded from, if any.
	Source string
}

// HasTest reports whether the formula declares a verification command.
func (f *Formula) HasTest() bool {
	return f.Test != ""
}

// String renders name and version, e.g. "tangram 0.1-1".
func (f *Formula) String() string {
	return fmt.Sprintf("%s %s", f.Name, f.Version)
}

// New normalizes and validates f, returning it ready for registration.
// Duplicate dependency names collapse to their first occurrence.
func New(f Formula) (*Formula, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.URL = strings.TrimSpace(f.URL)
	f.Version = strings.TrimSpace(f.Version)
	f.Install = strings.TrimSpace(f.Install)
	f.Test = strings.TrimSpace(f.Test)
	f.Dependencies = dedupe(f.Dependencies)

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the record invariants.
func (f *Formula) Validate() error {
	var missing []string
	if f.Name == "" {
		missing = append(missing, "name")
	}
	if f.URL == "" {
		missing = append(missing, "url")
	}
	if f.Checksum.IsZero() {
		missing = append(missing, "checksum")
	}
	if f.Version == "" {
		missing = append(missing, "version")
	}
	if f.Install == "" {
		missing = append(missing, "install")
	}
	if len(missing) > 0 {
		return errors.Newf(errors.ErrFormulaInvalid, "formula %q is missing required fields: %s",
			f.Name, strings.Join(missing, ", ")).
			WithDetail("source", f.Source).
			WithFormula(f.Name)
	}

	if err := ValidateName(f.Name); err != nil {
		return errors.Wrapf(err, errors.ErrFormulaInvalid, "formula %q has an invalid name", f.Name).
			WithDetail("source", f.Source).
			WithFormula(f.Name)
	}
	if strings.ContainsAny(f.Version, `/\`) {
		return errors.Newf(errors.ErrFormulaInvalid, "formula %q has a version containing a path separator", f.Name).
			WithDetail("version", f.Version).
			WithFormula(f.Name)
	}

	for _, dep := range f.Dependencies {
		if dep == "" {
			return errors.Newf(errors.ErrFormulaInvalid, "formula %q declares an empty dependency", f.Name).
				WithFormula(f.Name)
		}
		if err := ValidateName(dep); err != nil {
			return errors.Wrapf(err, errors.ErrFormulaInvalid, "formula %q declares an invalid dependency %q", f.Name, dep).
				WithFormula(f.Name)
		}
		if dep == f.Name {
			return errors.Newf(errors.ErrCyclicDependency, "formula %q depends on itself", f.Name).
				WithFormula(f.Name)
		}
	}
	return nil
}

// ValidateName checks that name is usable as a single file name: receipts
// and staging directories are named after the formula.
func ValidateName(name string) error {
	switch {
	case name == "":
		return errors.New(errors.ErrInvalidInput, "name is empty")
	case strings.HasPrefix(name, "."):
		return errors.Newf(errors.ErrInvalidInput, "name %q starts with a dot", name)
	case strings.ContainsAny(name, `/\`):
		return errors.Newf(errors.ErrInvalidInput, "name %q contains a path separator", name)
	case strings.ContainsRune(name, 0):
		return errors.Newf(errors.ErrInvalidInput, "name %q contains a NUL byte", name)
	}
	return nil
}

func dedupe(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
