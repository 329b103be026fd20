package formulary

import (
	"io"

	"github.com/arthur-debert/formulary/pkg/config"
	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/fetch"
	"github.com/arthur-debert/formulary/pkg/formula"
	"github.com/arthur-debert/formulary/pkg/installer"
	"github.com/arthur-debert/formulary/pkg/logging"
	"github.com/arthur-debert/formulary/pkg/paths"
	"github.com/arthur-debert/formulary/pkg/receipts"
	"github.com/arthur-debert/formulary/pkg/registry"
	"github.com/arthur-debert/formulary/pkg/runner"
	"github.com/spf13/afero"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	verbosity   int
	configFile  string
	formulaDirs []string
}

// app is everything a command needs, loaded once per invocation.
type app struct {
	cfg      *config.Config
	paths    paths.Paths
	fs       afero.Fs
	receipts *receipts.Store
	registry *registry.Formulas
	formulas []*formula.Formula
}

// env is the resolved configuration and directories. It is read before
// the state lock is taken; nothing in it depends on the installed set.
type env struct {
	cfg   *config.Config
	paths paths.Paths
	fs    afero.Fs
}

func resolveEnv(g *globalOptions) (*env, error) {
	p, err := paths.New(paths.Options{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to resolve directories")
	}

	overrides := map[string]interface{}{}
	if len(g.formulaDirs) > 0 {
		overrides["formula.dirs"] = g.formulaDirs
	}
	cfg, err := config.Load(config.LoadOptions{
		File:       g.configFile,
		Candidates: p.ConfigFiles(),
		Overrides:  overrides,
	})
	if err != nil {
		return nil, err
	}

	if cfg.State.Dir != "" || cfg.Cache.Dir != "" {
		p, err = paths.New(paths.Options{StateDir: cfg.State.Dir, CacheDir: cfg.Cache.Dir})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal, "failed to resolve directories")
		}
	}
	if len(cfg.Formula.Dirs) == 0 {
		cfg.Formula.Dirs = []string{p.FormulaDir()}
	}

	return &env{cfg: cfg, paths: p, fs: afero.NewOsFs()}, nil
}

// load reads the formulas and the installed set.
func (e *env) load() (*app, error) {
	logger := logging.GetLogger("cmd")

	formulas, err := formula.LoadDirs(e.fs, e.cfg.Formula.Dirs)
	if err != nil {
		return nil, err
	}

	store := receipts.New(e.fs, e.paths.ReceiptsDir())
	reg, err := registry.Load(formulas,
		registry.WithStore(store),
		registry.WithProvided(e.cfg.Registry.Provided...),
	)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Strs("formula_dirs", e.cfg.Formula.Dirs).
		Str("state", e.paths.StateDir()).
		Str("cache", e.paths.CacheDir()).
		Int("formulas", len(formulas)).
		Msg("Loaded formulas")

	return &app{
		cfg:      e.cfg,
		paths:    e.paths,
		fs:       e.fs,
		receipts: store,
		registry: reg,
		formulas: formulas,
	}, nil
}

// loadApp loads everything without locking, for commands that only read.
func loadApp(g *globalOptions) (*app, error) {
	e, err := resolveEnv(g)
	if err != nil {
		return nil, err
	}
	return e.load()
}

// loadAppLocked takes the state lock and then reads the installed set, so
// the set cannot change between reading it and acting on it. The returned
// function releases the lock.
func loadAppLocked(g *globalOptions) (*app, func(), error) {
	e, err := resolveEnv(g)
	if err != nil {
		return nil, nil, err
	}

	lock, err := lockState(e.paths.LockPath())
	if err != nil {
		return nil, nil, err
	}
	unlock := func() { _ = lock.Unlock() }

	a, err := e.load()
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return a, unlock, nil
}

// lookup finds a formula by name.
func (a *app) lookup(name string) (*formula.Formula, error) {
	f, ok := a.registry.Lookup(name)
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "no formula named %q", name).
			WithDetail("formula", name)
	}
	return f, nil
}

// installer builds an installer. Command output is streamed to live when
// it is not nil.
func (a *app) installer(live io.Writer, runTests bool) *installer.Installer {
	sh := runner.NewShell(a.cfg.Install.Shell)
	if live != nil {
		sh.Stdout = live
		sh.Stderr = live
	}
	return installer.New(installer.Options{
		Fetcher:    fetch.Default(a.fs, a.cfg.Fetch.Timeout, a.cfg.Fetch.Agent),
		Runner:     sh,
		FS:         a.fs,
		StagingDir: a.paths.StagingDir,
		RunTests:   runTests,
	})
}
