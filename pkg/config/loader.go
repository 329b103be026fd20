package config

import (
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"strings"

	ferrors "github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FORMULARY_"

//go:embed embedded/defaults.toml
var defaultConfig []byte

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// DefaultContent returns the embedded defaults.
func DefaultContent() string {
	return string(defaultConfig)
}

// LoadOptions selects the user configuration file.
type LoadOptions struct {
	// File is an explicit configuration file. It must exist.
	File string

	// Candidates are tried in order when File is empty. Missing candidates
	// are skipped.
	Candidates []string

	// Overrides are applied last, above the environment. Keys use koanf's
	// dotted form, e.g. "formula.dirs".
	Overrides map[string]interface{}
}

// Load merges defaults, the user file, the environment and overrides.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, ferrors.Wrap(err, ferrors.ErrConfigParse, "failed to load defaults")
	}

	// 2. User config file
	path, err := pickFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, ferrors.Wrapf(err, ferrors.ErrConfigParse, "failed to load config from %s", path)
		}
		logger.Debug().Str("path", path).Msg("Loaded config file")
	}

	// 3. Environment
	err = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Flag overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, ferrors.Wrap(err, ferrors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	// 5. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, ferrors.Wrap(err, ferrors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := postProcess(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func pickFile(opts LoadOptions) (string, error) {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return "", ferrors.Wrapf(err, ferrors.ErrConfigLoad, "cannot read config file %s", opts.File)
		}
		return opts.File, nil
	}
	for _, candidate := range opts.Candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, ferrors.Newf(ferrors.ErrConfigLoad, "config file %s must be .toml, .yaml or .yml", path)
	}
}

func postProcess(cfg *Config) error {
	cfg.Formula.Dirs = compact(cfg.Formula.Dirs)
	cfg.Registry.Provided = compact(cfg.Registry.Provided)
	cfg.Install.Shell = strings.TrimSpace(cfg.Install.Shell)
	if cfg.Install.Shell == "" {
		return ferrors.New(ferrors.ErrConfigParse, "install.shell must not be empty")
	}
	if cfg.Fetch.Timeout < 0 {
		return ferrors.New(ferrors.ErrConfigParse, "fetch.timeout must not be negative")
	}
	return nil
}

// compact trims entries and drops empty ones.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
