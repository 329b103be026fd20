package formula

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/hashutil"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a descriptor file format.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

// descriptor is the on-disk shape of a formula. The sha1/sha256/... keys are
// shorthands for checksum = "<algo>:<hex>".
type descriptor struct {
	Name        string   `toml:"name" yaml:"name"`
	Description string   `toml:"description" yaml:"description"`
	Homepage    string   `toml:"homepage" yaml:"homepage"`
	URL         string   `toml:"url" yaml:"url"`
	Version     string   `toml:"version" yaml:"version"`
	Checksum    string   `toml:"checksum" yaml:"checksum"`
	SHA1        string   `toml:"sha1" yaml:"sha1"`
	SHA256      string   `toml:"sha256" yaml:"sha256"`
	SHA512      string   `toml:"sha512" yaml:"sha512"`
	BLAKE2b     string   `toml:"blake2b" yaml:"blake2b"`
	DependsOn   []string `toml:"depends_on" yaml:"depends_on"`
	Install     string   `toml:"install" yaml:"install"`
	Test        string   `toml:"test" yaml:"test"`
}

// Parse decodes a single descriptor. source names the file for error
// messages and, when the descriptor has no name key, supplies the formula
// name from its base name.
func Parse(data []byte, format Format, source string) (*Formula, error) {
	var d descriptor
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFormulaParse, "failed to parse %s", source)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFormulaParse, "failed to parse %s", source)
		}
	default:
		return nil, errors.Newf(errors.ErrFormulaParse, "unsupported descriptor format %q", string(format))
	}

	name := d.Name
	if name == "" && source != "" {
		base := filepath.Base(source)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	checksum, err := d.checksum()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFormulaInvalid, "formula %q has an invalid checksum", name).
			WithDetail("source", source).
			WithFormula(name)
	}

	return New(Formula{
		Name:         name,
		Description:  d.Description,
		Homepage:     d.Homepage,
		URL:          d.URL,
		Checksum:     checksum,
		Version:      d.Version,
		Dependencies: d.DependsOn,
		Install:      d.Install,
		Test:         d.Test,
		Source:       source,
	})
}

// checksum resolves the single checksum the descriptor declares. A missing
// checksum yields the zero value and is reported by Validate.
func (d descriptor) checksum() (hashutil.Checksum, error) {
	type candidate struct {
		algo  hashutil.Algorithm
		value string
	}
	var set []candidate
	for _, c := range []candidate{
		{hashutil.SHA1, d.SHA1},
		{hashutil.SHA256, d.SHA256},
		{hashutil.SHA512, d.SHA512},
		{hashutil.BLAKE2b, d.BLAKE2b},
	} {
		if c.value != "" {
			set = append(set, c)
		}
	}

	switch {
	case d.Checksum != "" && len(set) > 0, len(set) > 1:
		return hashutil.Checksum{}, errors.New(errors.ErrInvalidInput, "more than one checksum declared")
	case d.Checksum != "":
		return hashutil.ParseChecksum(d.Checksum)
	case len(set) == 1:
		return hashutil.NewChecksum(string(set[0].algo), set[0].value)
	default:
		return hashutil.Checksum{}, nil
	}
}
