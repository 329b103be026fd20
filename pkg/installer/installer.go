package installer

import (
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/fetch"
	"github.com/arthur-debert/formulary/pkg/formula"
	"github.com/arthur-debert/formulary/pkg/logging"
	"github.com/arthur-debert/formulary/pkg/runner"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Environment variables exported to install and test commands.
const (
	EnvName    = "FORMULARY_NAME"
	EnvVersion = "FORMULARY_VERSION"
	EnvArchive = "FORMULARY_ARCHIVE"
)

// Registry is what the installer needs from the formula registry.
type Registry interface {
	Lookup(name string) (*formula.Formula, bool)
	IsInstalled(name string) bool
	MarkInstalled(name string) error
}

// Options configures an Installer.
type Options struct {
	Fetcher fetch.Fetcher
	Runner  runner.Runner

	// FS is where archives are staged. Defaults to the OS filesystem.
	FS afero.Fs

	// StagingDir returns the working directory for a formula's commands.
	StagingDir func(name, version string) string

	// RunTests enables test commands.
	RunTests bool

	Logger zerolog.Logger
}

// Installer installs formulas and their dependencies.
type Installer struct {
	fetcher    fetch.Fetcher
	runner     runner.Runner
	fs         afero.Fs
	stagingDir func(name, version string) string
	runTests   bool
	logger     zerolog.Logger
}

// New creates an installer.
func New(opts Options) *Installer {
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("installer")
	}

	fs := opts.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}

	staging := opts.StagingDir
	if staging == nil {
		staging = func(name, version string) string {
			return filepath.Join(os.TempDir(), "formulary", name+"-"+version)
		}
	}

	r := opts.Runner
	if r == nil {
		r = runner.NewShell("")
	}

	return &Installer{
		fetcher:    opts.Fetcher,
		runner:     r,
		fs:         fs,
		stagingDir: staging,
		runTests:   opts.RunTests,
		logger:     logger,
	}
}

// Install installs f after its dependencies. The result is returned even on
// failure and reflects how far the walk got.
func (i *Installer) Install(f *formula.Formula, reg Registry) (*Result, error) {
	done := logging.LogOperationStart(i.logger, "install "+f.Name)
	defer done()

	res, err := i.install(f, reg, make(map[string]bool))
	if err != nil {
		i.logger.Error().
			Err(err).
			Str("formula", f.Name).
			Str("failed", errors.Deepest(err)).
			Msg("Install failed")
	}
	return res, err
}

func (i *Installer) install(f *formula.Formula, reg Registry, resolving map[string]bool) (*Result, error) {
	res := &Result{Name: f.Name, Version: f.Version, State: StateUnresolved}

	if reg.IsInstalled(f.Name) {
		i.logger.Debug().Str("formula", f.Name).Msg("Already installed, skipping")
		res.State = StateInstalled
		res.Skipped = true
		return res, nil
	}

	if resolving[f.Name] {
		return i.fail(res, errors.Newf(errors.ErrCyclicDependency,
			"dependency cycle: %s is already being installed", f.Name).WithFormula(f.Name))
	}
	resolving[f.Name] = true
	defer delete(resolving, f.Name)

	i.transition(res, StateDependenciesResolving)
	for _, name := range f.Dependencies {
		dep, ok := reg.Lookup(name)
		if reg.IsInstalled(name) {
			skipped := &Result{Name: name, State: StateInstalled, Skipped: true}
			if ok {
				skipped.Version = dep.Version
			}
			res.Dependencies = append(res.Dependencies, skipped)
			continue
		}
		if !ok {
			return i.fail(res, errors.Newf(errors.ErrMissingDependency,
				"missing dependency %q", name).
				WithDetail("dependency", name).
				WithFormula(f.Name))
		}

		child, err := i.install(dep, reg, resolving)
		res.Dependencies = append(res.Dependencies, child)
		if err != nil {
			return i.fail(res, errors.WithinDependency(err, f.Name))
		}
	}

	i.transition(res, StateIntegrityVerifying)
	data, err := i.verify(f)
	if err != nil {
		return i.fail(res, err)
	}

	dir := i.stagingDir(f.Name, f.Version)
	archive, err := i.stage(f, dir, data)
	if err != nil {
		return i.fail(res, err)
	}
	env := commandEnv(f, archive)

	i.transition(res, StateInstalling)
	out, err := i.run(f, f.Install, dir, env)
	res.InstallOutput = out
	if err != nil {
		return i.fail(res, errors.Wrapf(err, errors.ErrInstallFailed,
			"install command could not run").WithFormula(f.Name))
	}
	if !out.Success() {
		return i.fail(res, commandFailure(errors.ErrInstallFailed, "install command failed", f, out))
	}

	if err := reg.MarkInstalled(f.Name); err != nil {
		if len(errors.GetChain(err)) == 0 {
			err = errors.WithinDependency(err, f.Name)
		}
		return i.fail(res, err)
	}
	res.Marked = true

	if f.HasTest() && i.runTests {
		i.transition(res, StateTestVerifying)
		out, err := i.run(f, f.Test, dir, env)
		res.TestOutput = out
		if err != nil {
			return i.fail(res, errors.Wrapf(err, errors.ErrTestFailed,
				"test command could not run").WithFormula(f.Name))
		}
		if !out.Success() {
			return i.fail(res, commandFailure(errors.ErrTestFailed, "test command failed", f, out))
		}
	}

	i.transition(res, StateInstalled)
	i.logger.Info().Str("formula", f.Name).Str("version", f.Version).Msg("Installed")
	return res, nil
}

// RunTest runs the test command of an installed formula.
func (i *Installer) RunTest(f *formula.Formula, reg Registry) (*Result, error) {
	res := &Result{Name: f.Name, Version: f.Version, State: StateInstalled}

	if !reg.IsInstalled(f.Name) {
		return i.fail(res, errors.Newf(errors.ErrNotInstalled, "%s is not installed", f.Name).WithFormula(f.Name))
	}
	if !f.HasTest() {
		return i.fail(res, errors.Newf(errors.ErrInvalidInput, "%s declares no test command", f.Name).WithFormula(f.Name))
	}

	dir := i.stagingDir(f.Name, f.Version)
	if err := i.fs.MkdirAll(dir, 0755); err != nil {
		return i.fail(res, errors.Wrapf(err, errors.ErrInternal, "failed to create %s", dir).WithFormula(f.Name))
	}

	i.transition(res, StateTestVerifying)
	out, err := i.run(f, f.Test, dir, commandEnv(f, filepath.Join(dir, archiveName(f.URL))))
	res.TestOutput = out
	if err != nil {
		return i.fail(res, errors.Wrapf(err, errors.ErrTestFailed, "test command could not run").WithFormula(f.Name))
	}
	if !out.Success() {
		return i.fail(res, commandFailure(errors.ErrTestFailed, "test command failed", f, out))
	}

	i.transition(res, StateInstalled)
	return res, nil
}

// verify fetches the source archive and checks it against the checksum.
func (i *Installer) verify(f *formula.Formula) ([]byte, error) {
	if i.fetcher == nil {
		return nil, errors.New(errors.ErrInternal, "no fetcher configured").WithFormula(f.Name)
	}

	done := logging.LogOperationStart(i.logger, "fetch "+f.Name)
	data, err := i.fetcher.Fetch(f.URL)
	done()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetchFailed, "failed to fetch source archive").
			WithDetail("url", f.URL).
			WithFormula(f.Name)
	}

	got, ok, err := f.Checksum.Verify(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to hash source archive").WithFormula(f.Name)
	}
	if !ok {
		return nil, errors.Newf(errors.ErrIntegrityMismatch,
			"%s checksum mismatch: expected %s, got %s", f.Checksum.Algorithm, f.Checksum.Digest, got).
			WithDetail("url", f.URL).
			WithDetail("algorithm", string(f.Checksum.Algorithm)).
			WithDetail("expected", f.Checksum.Digest).
			WithDetail("actual", got).
			WithFormula(f.Name)
	}

	i.logger.Debug().
		Str("formula", f.Name).
		Str("checksum", f.Checksum.String()).
		Int("bytes", len(data)).
		Msg("Archive verified")
	return data, nil
}

// stage writes the verified archive into dir and returns its path.
func (i *Installer) stage(f *formula.Formula, dir string, data []byte) (string, error) {
	if err := i.fs.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrInternal, "failed to create %s", dir).WithFormula(f.Name)
	}
	archive := filepath.Join(dir, archiveName(f.URL))
	if err := afero.WriteFile(i.fs, archive, data, 0644); err != nil {
		return "", errors.Wrapf(err, errors.ErrInternal, "failed to stage archive").WithFormula(f.Name)
	}
	return archive, nil
}

func (i *Installer) run(f *formula.Formula, line, dir string, env []string) (*runner.Output, error) {
	logging.LogCommand(i.logger, f.Name, line)
	out, err := i.runner.Run(runner.Command{Line: line, Dir: dir, Env: env})
	return &out, err
}

func (i *Installer) transition(res *Result, to State) {
	i.logger.Debug().
		Str("formula", res.Name).
		Str("from", res.State.String()).
		Str("to", to.String()).
		Msg("State transition")
	res.State = to
}

func (i *Installer) fail(res *Result, err error) (*Result, error) {
	i.transition(res, StateFailed)
	res.Err = err
	return res, err
}

func commandFailure(code errors.ErrorCode, msg string, f *formula.Formula, out *runner.Output) *errors.FormulaError {
	return errors.Newf(code, "%s (exit status %d)", msg, out.ExitStatus).
		WithDetails(map[string]interface{}{
			"exit_status": out.ExitStatus,
			"stdout":      out.Stdout,
			"stderr":      out.Stderr,
		}).
		WithFormula(f.Name)
}

func commandEnv(f *formula.Formula, archive string) []string {
	return []string{
		EnvName + "=" + f.Name,
		EnvVersion + "=" + f.Version,
		EnvArchive + "=" + archive,
	}
}

// archiveName is the last path element of the source URL.
func archiveName(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	name := path.Base(filepath.ToSlash(p))
	if name == "" || name == "." || name == "/" {
		return "archive"
	}
	return name
}
