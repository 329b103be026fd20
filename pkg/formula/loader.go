package formula

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/logging"
	"github.com/spf13/afero"
)

// LoadFile parses one descriptor file.
func LoadFile(fs afero.Fs, path string) (*Formula, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, errors.Newf(errors.ErrFormulaParse, "%s is not a .toml, .yaml or .yml descriptor", path)
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFormulaParse, "failed to read %s", path)
	}
	return Parse(data, format, path)
}

// LoadDir parses every descriptor directly inside dir, sorted by file name.
// Dotfiles and files with other extensions are ignored. A missing directory
// yields no formulas.
func LoadDir(fs afero.Fs, dir string) ([]*Formula, error) {
	logger := logging.GetLogger("formula.loader")

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("dir", dir).Msg("Formula directory does not exist")
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFormulaParse, "failed to read formula directory %s", dir)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var formulas []*Formula
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, ok := FormatFromPath(entry.Name()); !ok {
			continue
		}
		f, err := LoadFile(fs, filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		logger.Trace().Str("formula", f.Name).Str("source", f.Source).Msg("Loaded formula")
		formulas = append(formulas, f)
	}
	return formulas, nil
}

// LoadDirs loads every directory in order and concatenates the results.
func LoadDirs(fs afero.Fs, dirs []string) ([]*Formula, error) {
	var all []*Formula
	for _, dir := range dirs {
		formulas, err := LoadDir(fs, dir)
		if err != nil {
			return nil, err
		}
		all = append(all, formulas...)
	}
	return all, nil
}
