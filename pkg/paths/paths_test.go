package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToXDG(t *testing.T) {
	for _, env := range []string{EnvDataDir, EnvConfigDir, EnvCacheDir, EnvStateDir} {
		t.Setenv(env, "")
	}

	p, err := New(Options{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(xdg.DataHome, AppDirName), p.DataDir())
	assert.Equal(t, filepath.Join(xdg.StateHome, AppDirName), p.StateDir())
	assert.Equal(t, filepath.Join(xdg.DataHome, AppDirName, FormulaDirName), p.FormulaDir())
}

func TestNewPrecedence(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvStateDir, filepath.Join(root, "env-state"))
	t.Setenv(EnvCacheDir, filepath.Join(root, "env-cache"))

	p, err := New(Options{StateDir: filepath.Join(root, "opt-state")})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "opt-state"), p.StateDir())
	assert.Equal(t, filepath.Join(root, "env-cache"), p.CacheDir())
	assert.Equal(t, filepath.Join(root, "opt-state", ReceiptsDirName), p.ReceiptsDir())
	assert.Equal(t, filepath.Join(root, "opt-state", LockFileName), p.LockPath())
	assert.Equal(t, filepath.Join(root, "env-cache", StagingDirName, "tangram-0.1-1"), p.StagingDir("tangram", "0.1-1"))
}

func TestConfigFiles(t *testing.T) {
	p, err := New(Options{ConfigDir: "/etc/formulary"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/etc/formulary/config.toml",
		"/etc/formulary/config.yaml",
		"/etc/formulary/config.yml",
	}, p.ConfigFiles())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, filepath.Join(home, "formula"), expandHome("~/formula"))
	assert.Equal(t, "~other/formula", expandHome("~other/formula"))
	assert.Equal(t, "/abs", expandHome("/abs"))
	assert.Equal(t, "", expandHome(""))
}
