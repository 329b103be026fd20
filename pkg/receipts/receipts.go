// Package receipts persists the installed set: one receipt file per
// installed formula under the state directory.
package receipts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/formula"
	"github.com/arthur-debert/formulary/pkg/logging"
	"github.com/spf13/afero"
)

// receiptPrefix starts every receipt file. The format is
// "installed|<version>|<RFC3339 time>".
const receiptPrefix = "installed"

// Receipt records one installed formula.
type Receipt struct {
	Name        string
	Version     string
	InstalledAt time.Time
}

// Store reads and writes receipts in dir.
type Store struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// New creates a Store rooted at dir on fs.
func New(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir, now: time.Now}
}

func (s *Store) path(name string) (string, error) {
	if err := formula.ValidateName(name); err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "no receipt can be named %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Record writes the receipt for f, replacing any previous one.
func (s *Store) Record(f *formula.Formula) error {
	path, err := s.path(f.Name)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrStateWrite, "failed to create receipts directory %s", s.dir)
	}

	content := fmt.Sprintf("%s|%s|%s", receiptPrefix, f.Version, s.now().UTC().Format(time.RFC3339))
	if err := afero.WriteFile(s.fs, path, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrStateWrite, "failed to write receipt for %s", f.Name)
	}
	return nil
}

// Get reads the receipt for name.
func (s *Store) Get(name string) (Receipt, bool, error) {
	path, err := s.path(name)
	if err != nil {
		return Receipt{}, false, err
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Receipt{}, false, nil
		}
		return Receipt{}, false, errors.Wrapf(err, errors.ErrStateRead, "failed to read receipt for %s", name)
	}
	r, err := parse(name, string(data))
	if err != nil {
		return Receipt{}, false, err
	}
	return r, true, nil
}

// List returns every receipt sorted by name. Files that cannot be formula
// names, such as dotfiles, are ignored. Malformed receipts are logged and
// skipped.
func (s *Store) List() ([]Receipt, error) {
	logger := logging.GetLogger("receipts")

	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Receipt{}, nil
		}
		return nil, errors.Wrapf(err, errors.ErrStateRead, "failed to read receipts directory %s", s.dir)
	}

	out := make([]Receipt, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || formula.ValidateName(entry.Name()) != nil {
			continue
		}
		data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrStateRead, "failed to read receipt for %s", entry.Name())
		}
		r, err := parse(entry.Name(), string(data))
		if err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping malformed receipt")
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Names returns the names of every installed formula.
func (s *Store) Names() ([]string, error) {
	list, err := s.List()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, r := range list {
		names[i] = r.Name
	}
	return names, nil
}

func parse(name, content string) (Receipt, error) {
	parts := strings.Split(strings.TrimSpace(content), "|")
	if len(parts) != 3 || parts[0] != receiptPrefix {
		return Receipt{}, errors.Newf(errors.ErrStateRead, "malformed receipt for %s", name).
			WithDetail("content", content)
	}
	at, err := time.Parse(time.RFC3339, parts[2])
	if err != nil {
		return Receipt{}, errors.Wrapf(err, errors.ErrStateRead, "malformed receipt time for %s", name)
	}
	return Receipt{Name: name, Version: parts[1], InstalledAt: at}, nil
}
