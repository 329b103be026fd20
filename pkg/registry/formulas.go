package registry

import (
	"sort"
	"sync"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/formula"
	"github.com/arthur-debert/formulary/pkg/logging"
)

// Store persists the installed set across processes.
type Store interface {
	// Names returns every formula name recorded as installed.
	Names() ([]string, error)

	// Record marks f installed.
	Record(f *formula.Formula) error
}

// Option configures a Formulas registry.
type Option func(*Formulas)

// WithStore backs the installed set with a persistent store.
func WithStore(s Store) Option {
	return func(r *Formulas) { r.store = s }
}

// WithProvided marks names as satisfied by the host system.
func WithProvided(names ...string) Option {
	return func(r *Formulas) {
		for _, n := range names {
			r.provided[n] = true
		}
	}
}

// Formulas maps formula names to records and tracks which names are
// installed. The installed set is guarded by a mutex so the
// check-then-install skip stays consistent for concurrent callers.
type Formulas struct {
	formulas Registry[*formula.Formula]

	mu        sync.Mutex
	installed map[string]bool
	provided  map[string]bool
	store     Store
}

// NewFormulas creates an empty registry.
func NewFormulas(opts ...Option) *Formulas {
	r := &Formulas{
		formulas:  New[*formula.Formula](),
		installed: make(map[string]bool),
		provided:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load registers every formula, rejects dependency cycles and seeds the
// installed set from the store. It fails before anything is installed.
func Load(formulas []*formula.Formula, opts ...Option) (*Formulas, error) {
	logger := logging.GetLogger("registry")

	r := NewFormulas(opts...)
	for _, f := range formulas {
		if err := r.Add(f); err != nil {
			return nil, err
		}
	}

	if err := r.CheckCycles(); err != nil {
		return nil, err
	}

	if r.store != nil {
		names, err := r.store.Names()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrStateRead, "failed to read installed formulas")
		}
		r.mu.Lock()
		for _, n := range names {
			r.installed[n] = true
		}
		r.mu.Unlock()
	}

	logger.Debug().
		Int("formulas", r.formulas.Count()).
		Int("installed", len(r.installed)).
		Int("provided", len(r.provided)).
		Msg("Registry loaded")
	return r, nil
}

// Add registers f. Names are unique.
func (r *Formulas) Add(f *formula.Formula) error {
	if r.formulas.Has(f.Name) {
		var first string
		if prev, ok := r.Lookup(f.Name); ok {
			first = prev.Source
		}
		return errors.Newf(errors.ErrAlreadyExists, "formula %q is defined twice", f.Name).
			WithDetail("first", first).
			WithDetail("second", f.Source).
			WithFormula(f.Name)
	}
	return r.formulas.Register(f.Name, f)
}

// Lookup returns the formula registered under name.
func (r *Formulas) Lookup(name string) (*formula.Formula, bool) {
	f, err := r.formulas.Get(name)
	if err != nil {
		return nil, false
	}
	return f, true
}

// IsInstalled reports whether name is installed or provided by the host.
func (r *Formulas) IsInstalled(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.installed[name] || r.provided[name]
}

// IsProvided reports whether name is satisfied by the host system.
func (r *Formulas) IsProvided(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.provided[name]
}

// MarkInstalled records name as installed, persisting it when a store is
// configured. Marking an already installed name again is a no-op.
func (r *Formulas) MarkInstalled(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.installed[name] {
		return nil
	}
	if r.store != nil {
		f, err := r.formulas.Get(name)
		if err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "cannot record unknown formula %q", name)
		}
		if err := r.store.Record(f); err != nil {
			return errors.Wrapf(err, errors.ErrStateWrite, "failed to record %q as installed", name).
				WithFormula(name)
		}
	}
	r.installed[name] = true
	return nil
}

// Installed returns the installed formula names, sorted. Host-provided names
// are not included.
func (r *Formulas) Installed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.installed))
	for n := range r.installed {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Names returns every registered formula name, sorted.
func (r *Formulas) Names() []string {
	return r.formulas.List()
}

// All returns every registered formula, sorted by name.
func (r *Formulas) All() []*formula.Formula {
	names := r.formulas.List()
	out := make([]*formula.Formula, 0, len(names))
	for _, n := range names {
		if f, ok := r.Lookup(n); ok {
			out = append(out, f)
		}
	}
	return out
}

// Dependents returns the registered formulas that declare name as a direct
// dependency, sorted by name.
func (r *Formulas) Dependents(name string) []string {
	var out []string
	for _, f := range r.All() {
		for _, d := range f.Dependencies {
			if d == name {
				out = append(out, f.Name)
				break
			}
		}
	}
	return out
}
