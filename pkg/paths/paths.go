package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvDataDir overrides the XDG data directory for formulary
	EnvDataDir = "FORMULARY_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for formulary
	EnvConfigDir = "FORMULARY_CONFIG_DIR"

	// EnvCacheDir overrides the XDG cache directory for formulary
	EnvCacheDir = "FORMULARY_CACHE_DIR"

	// EnvStateDir overrides the XDG state directory for formulary
	EnvStateDir = "FORMULARY_STATE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Directory and file names inside the formulary directories. These define
// the on-disk layout and are not user-configurable.
const (
	// AppDirName is the directory name used under every XDG base directory
	AppDirName = "formulary"

	// FormulaDirName holds formula descriptors under the data directory
	FormulaDirName = "formula"

	// ReceiptsDirName holds one receipt per installed formula under the state directory
	ReceiptsDirName = "receipts"

	// StagingDirName holds fetched archives under the cache directory
	StagingDirName = "staging"

	// LockFileName guards the state directory across processes
	LockFileName = "formulary.lock"

	// ConfigFileName is the base name of the user configuration file
	ConfigFileName = "config"
)

// Options overrides individual directories. Empty fields fall back to the
// environment and then to XDG defaults.
type Options struct {
	DataDir   string
	ConfigDir string
	CacheDir  string
	StateDir  string
}

// Paths provides centralized path management for formulary
type Paths interface {
	DataDir() string
	ConfigDir() string
	CacheDir() string
	StateDir() string
	FormulaDir() string
	ReceiptsDir() string
	StagingDir(name, version string) string
	LockPath() string
	ConfigFiles() []string
}

type paths struct {
	data   string
	config string
	cache  string
	state  string
}

// New resolves every directory. Option values win over environment
// overrides, which win over XDG defaults.
func New(opts Options) (Paths, error) {
	p := &paths{
		data:   resolve(opts.DataDir, EnvDataDir, xdg.DataHome),
		config: resolve(opts.ConfigDir, EnvConfigDir, xdg.ConfigHome),
		cache:  resolve(opts.CacheDir, EnvCacheDir, xdg.CacheHome),
		state:  resolve(opts.StateDir, EnvStateDir, xdg.StateHome),
	}

	for _, dir := range []*string{&p.data, &p.config, &p.cache, &p.state} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return nil, err
		}
		*dir = abs
	}
	return p, nil
}

func resolve(explicit, env, xdgBase string) string {
	if explicit != "" {
		return expandHome(explicit)
	}
	if v := os.Getenv(env); v != "" {
		return expandHome(v)
	}
	return filepath.Join(xdgBase, AppDirName)
}

// expandHome expands ~ to the home directory
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~something (not the user's home)
	return path
}

func (p *paths) DataDir() string   { return p.data }
func (p *paths) ConfigDir() string { return p.config }
func (p *paths) CacheDir() string  { return p.cache }
func (p *paths) StateDir() string  { return p.state }

// FormulaDir is the default directory searched for formula descriptors.
func (p *paths) FormulaDir() string {
	return filepath.Join(p.data, FormulaDirName)
}

// ReceiptsDir holds the persisted installed set.
func (p *paths) ReceiptsDir() string {
	return filepath.Join(p.state, ReceiptsDirName)
}

// StagingDir is where a formula's archive is written before its install
// command runs there.
func (p *paths) StagingDir(name, version string) string {
	return filepath.Join(p.cache, StagingDirName, name+"-"+version)
}

// LockPath is the inter-process lock file for the state directory.
func (p *paths) LockPath() string {
	return filepath.Join(p.state, LockFileName)
}

// ConfigFiles lists candidate user configuration files in lookup order.
func (p *paths) ConfigFiles() []string {
	return []string{
		filepath.Join(p.config, ConfigFileName+".toml"),
		filepath.Join(p.config, ConfigFileName+".yaml"),
		filepath.Join(p.config, ConfigFileName+".yml"),
	}
}
