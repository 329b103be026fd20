package installer

import (
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/formula"
	"github.com/arthur-debert/formulary/pkg/hashutil"
	"github.com/arthur-debert/formulary/pkg/registry"
	"github.com/arthur-debert/formulary/pkg/runner"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stagingRoot = "/cache/staging"

// journal records collaborator calls in the order they happen.
type journal struct {
	events []string
}

func (j *journal) add(event string) { j.events = append(j.events, event) }

func (j *journal) runs() []string {
	var out []string
	for _, e := range j.events {
		if strings.HasPrefix(e, "run ") {
			out = append(out, strings.TrimPrefix(e, "run "))
		}
	}
	return out
}

type fakeFetcher struct {
	j        *journal
	archives map[string][]byte
	errs     map[string]error
}

func (f *fakeFetcher) Fetch(rawURL string) ([]byte, error) {
	f.j.add("fetch " + rawURL)
	if err := f.errs[rawURL]; err != nil {
		return nil, err
	}
	data, ok := f.archives[rawURL]
	if !ok {
		return nil, stderrors.New("404 not found")
	}
	return data, nil
}

type fakeRunner struct {
	j        *journal
	outputs  map[string]runner.Output
	commands []runner.Command
}

func (r *fakeRunner) Run(cmd runner.Command) (runner.Output, error) {
	r.j.add("run " + cmd.Line)
	r.commands = append(r.commands, cmd)
	if out, ok := r.outputs[cmd.Line]; ok {
		return out, nil
	}
	return runner.Output{Stdout: cmd.Line + " ok\n"}, nil
}

type fixture struct {
	j       *journal
	fetcher *fakeFetcher
	runner  *fakeRunner
	fs      afero.Fs
	inst    *Installer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	j := &journal{}
	fx := &fixture{
		j:       j,
		fetcher: &fakeFetcher{j: j, archives: map[string][]byte{}, errs: map[string]error{}},
		runner:  &fakeRunner{j: j, outputs: map[string]runner.Output{}},
		fs:      afero.NewMemMapFs(),
	}
	fx.inst = New(Options{
		Fetcher: fx.fetcher,
		Runner:  fx.runner,
		FS:      fx.fs,
		StagingDir: func(name, version string) string {
			return filepath.Join(stagingRoot, name+"-"+version)
		},
		RunTests: true,
	})
	return fx
}

// formula builds a formula whose archive is served by the fake fetcher.
func (fx *fixture) formula(t *testing.T, name, test string, deps ...string) *formula.Formula {
	t.Helper()
	url := "https://example.test/" + name + "-0.1.tar.gz"
	archive := []byte(name + " source archive")
	fx.fetcher.archives[url] = archive

	digest, err := hashutil.Sum(archive, hashutil.SHA1)
	require.NoError(t, err)
	sum, err := hashutil.NewChecksum("sha1", digest)
	require.NoError(t, err)

	f, err := formula.New(formula.Formula{
		Name:         name,
		Homepage:     "https://example.test/" + name,
		URL:          url,
		Checksum:     sum,
		Version:      "0.1-1",
		Dependencies: deps,
		Install:      "luarocks make " + name + "-0.1-1.rockspec",
		Test:         test,
	})
	require.NoError(t, err)
	return f
}

func load(t *testing.T, formulas ...*formula.Formula) *registry.Formulas {
	t.Helper()
	reg, err := registry.Load(formulas, registry.WithProvided("lua", "luarocks"))
	require.NoError(t, err)
	return reg
}

func TestInstallTangramWithHashchop(t *testing.T) {
	fx := newFixture(t)
	hashchop := fx.formula(t, "hashchop", "")
	tangram := fx.formula(t, "tangram", "tangram test", "lua", "luarocks", "hashchop")
	reg := load(t, hashchop, tangram)

	res, err := fx.inst.Install(tangram, reg)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"fetch " + hashchop.URL,
		"run " + hashchop.Install,
		"fetch " + tangram.URL,
		"run " + tangram.Install,
		"run tangram test",
	}, fx.j.events)

	assert.True(t, res.Succeeded())
	assert.Equal(t, StateInstalled, res.State)
	assert.Equal(t, []string{"hashchop", "tangram"}, res.Installed())
	assert.Equal(t, []string{"hashchop", "tangram"}, reg.Installed())

	require.Len(t, res.Dependencies, 3)
	assert.True(t, res.Dependencies[0].Skipped, "lua is provided")
	assert.True(t, res.Dependencies[1].Skipped, "luarocks is provided")
	assert.Equal(t, "hashchop", res.Dependencies[2].Name)
	assert.False(t, res.Dependencies[2].Skipped)

	require.NotNil(t, res.InstallOutput)
	require.NotNil(t, res.TestOutput)
	assert.Equal(t, "tangram test ok\n", res.TestOutput.Stdout)
}

func TestInstallIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	hashchop := fx.formula(t, "hashchop", "")
	tangram := fx.formula(t, "tangram", "tangram test", "hashchop")
	reg := load(t, hashchop, tangram)

	_, err := fx.inst.Install(tangram, reg)
	require.NoError(t, err)
	before := len(fx.j.events)

	res, err := fx.inst.Install(tangram, reg)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Installed())
	assert.Len(t, fx.j.events, before, "second install must not touch collaborators")
}

func TestInstallMissingDependency(t *testing.T) {
	fx := newFixture(t)
	tangram := fx.formula(t, "tangram", "tangram test", "lua", "luarocks", "hashchop")
	reg := load(t, tangram)

	res, err := fx.inst.Install(tangram, reg)
	require.Error(t, err)

	assert.True(t, errors.IsErrorCode(err, errors.ErrMissingDependency))
	assert.Equal(t, "hashchop", errors.GetErrorDetails(err)["dependency"])
	assert.Equal(t, "tangram", errors.Deepest(err))
	assert.Equal(t, errors.ExitMissingDependency, errors.ExitCode(err))
	assert.Empty(t, fx.j.runs(), "no command may run")
	assert.Equal(t, StateFailed, res.State)
	assert.False(t, reg.IsInstalled("tangram"))
}

func TestInstallIntegrityMismatchInDependency(t *testing.T) {
	fx := newFixture(t)
	hashchop := fx.formula(t, "hashchop", "")
	tangram := fx.formula(t, "tangram", "tangram test", "hashchop")
	fx.fetcher.archives[hashchop.URL] = []byte("tampered archive")
	reg := load(t, hashchop, tangram)

	res, err := fx.inst.Install(tangram, reg)
	require.Error(t, err)

	assert.True(t, errors.IsErrorCode(err, errors.ErrIntegrityMismatch), "got %v", err)
	assert.Equal(t, []string{"tangram", "hashchop"}, errors.GetChain(err))
	assert.Equal(t, "hashchop", errors.Deepest(err))
	assert.Equal(t, hashchop.Checksum.Digest, errors.GetErrorDetails(err)["expected"])

	assert.Equal(t, []string{"fetch " + hashchop.URL}, fx.j.events)
	assert.False(t, reg.IsInstalled("hashchop"))
	assert.False(t, reg.IsInstalled("tangram"))

	require.Len(t, res.Dependencies, 1)
	assert.Equal(t, StateFailed, res.Dependencies[0].State)
	assert.Nil(t, res.Dependencies[0].InstallOutput)
}

func TestIntegrityCheckedBeforeInstallCommand(t *testing.T) {
	fx := newFixture(t)
	hashchop := fx.formula(t, "hashchop", "")
	fx.fetcher.archives[hashchop.URL] = []byte("corrupted")
	reg := load(t, hashchop)

	_, err := fx.inst.Install(hashchop, reg)
	require.Error(t, err)
	assert.False(t, errors.IsErrorCode(err, errors.ErrInstallFailed))
	assert.True(t, errors.IsErrorCode(err, errors.ErrIntegrityMismatch))
	assert.Empty(t, fx.j.runs())
}

func TestInstallFetchFailed(t *testing.T) {
	fx := newFixture(t)
	hashchop := fx.formula(t, "hashchop", "")
	fx.fetcher.errs[hashchop.URL] = stderrors.New("connection refused")
	reg := load(t, hashchop)

	_, err := fx.inst.Install(hashchop, reg)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFetchFailed))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, errors.ExitFetchFailed, errors.ExitCode(err))
	assert.Empty(t, fx.j.runs())
}

func TestInstallCommandFailureStopsWalk(t *testing.T) {
	fx := newFixture(t)
	hashchop := fx.formula(t, "hashchop", "")
	tangram := fx.formula(t, "tangram", "tangram test", "hashchop")
	fx.runner.outputs[hashchop.Install] = runner.Output{ExitStatus: 2, Stderr: "rockspec not found\n"}
	reg := load(t, hashchop, tangram)

	res, err := fx.inst.Install(tangram, reg)
	require.Error(t, err)

	assert.True(t, errors.IsErrorCode(err, errors.ErrInstallFailed))
	details := errors.GetErrorDetails(err)
	assert.Equal(t, 2, details["exit_status"])
	assert.Equal(t, "rockspec not found\n", details["stderr"])
	assert.Equal(t, []string{hashchop.Install}, fx.j.runs())
	assert.False(t, reg.IsInstalled("hashchop"))

	dep := res.Dependencies[0]
	require.NotNil(t, dep.InstallOutput)
	assert.Equal(t, 2, dep.InstallOutput.ExitStatus)
}

func TestInstallRunnerErrorIsInstallFailure(t *testing.T) {
	fx := newFixture(t)
	hashchop := fx.formula(t, "hashchop", "")
	fx.inst.runner = runnerFunc(func(runner.Command) (runner.Output, error) {
		return runner.Output{ExitStatus: -1}, stderrors.New("exec: sh: not found")
	})
	reg := load(t, hashchop)

	_, err := fx.inst.Install(hashchop, reg)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInstallFailed))
	assert.False(t, reg.IsInstalled("hashchop"))
}

type runnerFunc func(runner.Command) (runner.Output, error)

func (f runnerFunc) Run(cmd runner.Command) (runner.Output, error) { return f(cmd) }

func TestTestFailureKeepsFormulaInstalled(t *testing.T) {
	fx := newFixture(t)
	tangram := fx.formula(t, "tangram", "tangram test")
	fx.runner.outputs["tangram test"] = runner.Output{ExitStatus: 1, Stdout: "1 failure\n"}
	reg := load(t, tangram)

	res, err := fx.inst.Install(tangram, reg)
	require.Error(t, err)

	assert.True(t, errors.IsErrorCode(err, errors.ErrTestFailed))
	assert.Equal(t, errors.ExitTestFailed, errors.ExitCode(err))
	assert.True(t, reg.IsInstalled("tangram"))
	assert.True(t, res.Marked)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, []string{"tangram"}, res.Installed())
	require.NotNil(t, res.TestOutput)
	assert.Equal(t, "1 failure\n", res.TestOutput.Stdout)
}

func TestTestsCanBeDisabled(t *testing.T) {
	fx := newFixture(t)
	fx.inst.runTests = false
	tangram := fx.formula(t, "tangram", "tangram test")
	reg := load(t, tangram)

	res, err := fx.inst.Install(tangram, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{tangram.Install}, fx.j.runs())
	assert.Nil(t, res.TestOutput)
}

func TestDependenciesInstalledOnceInDeclaredOrder(t *testing.T) {
	fx := newFixture(t)
	d := fx.formula(t, "d", "")
	b := fx.formula(t, "b", "", "d")
	c := fx.formula(t, "c", "", "d")
	app := fx.formula(t, "app", "", "b", "c")
	reg := load(t, d, b, c, app)

	res, err := fx.inst.Install(app, reg)
	require.NoError(t, err)

	assert.Equal(t, []string{d.Install, b.Install, c.Install, app.Install}, fx.j.runs())
	assert.Equal(t, []string{"d", "b", "c", "app"}, res.Installed())

	// c reaches d after b installed it.
	cres := res.Dependencies[1]
	require.Len(t, cres.Dependencies, 1)
	assert.True(t, cres.Dependencies[0].Skipped)
}

func TestPartialInstallIsNotRolledBack(t *testing.T) {
	fx := newFixture(t)
	b := fx.formula(t, "b", "")
	c := fx.formula(t, "c", "")
	app := fx.formula(t, "app", "", "b", "c")
	fx.runner.outputs[c.Install] = runner.Output{ExitStatus: 1}
	reg := load(t, b, c, app)

	_, err := fx.inst.Install(app, reg)
	require.Error(t, err)
	assert.Equal(t, []string{"app", "c"}, errors.GetChain(err))
	assert.True(t, reg.IsInstalled("b"))
	assert.False(t, reg.IsInstalled("c"))
	assert.False(t, reg.IsInstalled("app"))
}

func TestCycleRejectedBeforeAnyCommand(t *testing.T) {
	fx := newFixture(t)
	a := fx.formula(t, "a", "", "b")
	b := fx.formula(t, "b", "", "a")

	_, err := registry.Load([]*formula.Formula{a, b})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCyclicDependency))
	assert.Empty(t, fx.j.events)
}

func TestRuntimeCycleGuard(t *testing.T) {
	fx := newFixture(t)
	a := fx.formula(t, "a", "", "b")
	b := fx.formula(t, "b", "", "a")
	reg := registry.NewFormulas()
	require.NoError(t, reg.Add(a))
	require.NoError(t, reg.Add(b))

	_, err := fx.inst.Install(a, reg)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCyclicDependency))
	assert.Equal(t, []string{"a", "b", "a"}, errors.GetChain(err))
	assert.Empty(t, fx.j.events)
}

func TestArchiveStagedAndExportedToCommands(t *testing.T) {
	fx := newFixture(t)
	tangram := fx.formula(t, "tangram", "tangram test")
	reg := load(t, tangram)

	_, err := fx.inst.Install(tangram, reg)
	require.NoError(t, err)

	dir := filepath.Join(stagingRoot, "tangram-0.1-1")
	archive := filepath.Join(dir, "tangram-0.1.tar.gz")
	data, err := afero.ReadFile(fx.fs, archive)
	require.NoError(t, err)
	assert.Equal(t, "tangram source archive", string(data))

	require.Len(t, fx.runner.commands, 2)
	for _, cmd := range fx.runner.commands {
		assert.Equal(t, dir, cmd.Dir)
		assert.Contains(t, cmd.Env, "FORMULARY_NAME=tangram")
		assert.Contains(t, cmd.Env, "FORMULARY_VERSION=0.1-1")
		assert.Contains(t, cmd.Env, "FORMULARY_ARCHIVE="+archive)
	}
}

func TestMarkInstalledFailure(t *testing.T) {
	fx := newFixture(t)
	tangram := fx.formula(t, "tangram", "tangram test")
	reg, err := registry.Load([]*formula.Formula{tangram}, registry.WithStore(failingStore{}))
	require.NoError(t, err)

	res, err := fx.inst.Install(tangram, reg)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrStateWrite))
	assert.Equal(t, []string{"tangram"}, errors.GetChain(err))
	assert.False(t, res.Marked)
	assert.Equal(t, []string{tangram.Install}, fx.j.runs(), "test must not run when the mark failed")
}

type failingStore struct{}

func (failingStore) Names() ([]string, error)      { return nil, nil }
func (failingStore) Record(*formula.Formula) error { return stderrors.New("read-only filesystem") }

func TestRunTest(t *testing.T) {
	t.Run("not installed", func(t *testing.T) {
		fx := newFixture(t)
		tangram := fx.formula(t, "tangram", "tangram test")
		reg := load(t, tangram)

		_, err := fx.inst.RunTest(tangram, reg)
		assert.True(t, errors.IsErrorCode(err, errors.ErrNotInstalled))
		assert.Empty(t, fx.j.events)
	})

	t.Run("no test command", func(t *testing.T) {
		fx := newFixture(t)
		hashchop := fx.formula(t, "hashchop", "")
		reg := load(t, hashchop)
		require.NoError(t, reg.MarkInstalled("hashchop"))

		_, err := fx.inst.RunTest(hashchop, reg)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})

	t.Run("passes", func(t *testing.T) {
		fx := newFixture(t)
		tangram := fx.formula(t, "tangram", "tangram test")
		reg := load(t, tangram)
		require.NoError(t, reg.MarkInstalled("tangram"))

		res, err := fx.inst.RunTest(tangram, reg)
		require.NoError(t, err)
		assert.Equal(t, []string{"run tangram test"}, fx.j.events)
		assert.True(t, res.Succeeded())
	})

	t.Run("fails", func(t *testing.T) {
		fx := newFixture(t)
		tangram := fx.formula(t, "tangram", "tangram test")
		fx.runner.outputs["tangram test"] = runner.Output{ExitStatus: 3}
		reg := load(t, tangram)
		require.NoError(t, reg.MarkInstalled("tangram"))

		res, err := fx.inst.RunTest(tangram, reg)
		assert.True(t, errors.IsErrorCode(err, errors.ErrTestFailed))
		assert.Equal(t, StateFailed, res.State)
		assert.True(t, reg.IsInstalled("tangram"))
	})
}

func TestArchiveName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/pkulchenko/tangram/archive/v0.1.tar.gz", "v0.1.tar.gz"},
		{"https://example.test/dl/hashchop.zip?token=abc", "hashchop.zip"},
		{"file:///srv/archives/tangram-0.1.tar.gz", "tangram-0.1.tar.gz"},
		{"/srv/archives/local.tgz", "local.tgz"},
		{"https://example.test/", "archive"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, archiveName(tt.url))
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "resolving-dependencies", StateDependenciesResolving.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateInstalling.Terminal())
}
