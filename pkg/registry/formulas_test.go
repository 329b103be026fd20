package registry

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/formula"
	"github.com/arthur-debert/formulary/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFormula(t *testing.T, name string, deps ...string) *formula.Formula {
	t.Helper()
	c, err := hashutil.NewChecksum("sha256", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
	require.NoError(t, err)
	f, err := formula.New(formula.Formula{
		Name:         name,
		URL:          "https://example.com/" + name + ".tar.gz",
		Checksum:     c,
		Version:      "1.0",
		Dependencies: deps,
		Install:      "luarocks install " + name + ".rockspec",
		Source:       name + ".toml",
	})
	require.NoError(t, err)
	return f
}

type memStore struct {
	mu       sync.Mutex
	names    []string
	recorded []string
	readErr  error
	writeErr error
}

func (s *memStore) Names() ([]string, error) { return s.names, s.readErr }

func (s *memStore) Record(f *formula.Formula) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.recorded = append(s.recorded, f.Name)
	return nil
}

func TestLoadAndLookup(t *testing.T) {
	reg, err := Load([]*formula.Formula{
		newFormula(t, "tangram", "hashchop"),
		newFormula(t, "hashchop"),
	})
	require.NoError(t, err)

	f, ok := reg.Lookup("tangram")
	require.True(t, ok)
	assert.Equal(t, []string{"hashchop"}, f.Dependencies)

	_, ok = reg.Lookup("lua")
	assert.False(t, ok)

	assert.Equal(t, []string{"hashchop", "tangram"}, reg.Names())
	assert.Len(t, reg.All(), 2)
	assert.Equal(t, []string{"tangram"}, reg.Dependents("hashchop"))
}

func TestLoadRejectsDuplicates(t *testing.T) {
	_, err := Load([]*formula.Formula{
		newFormula(t, "hashchop"),
		newFormula(t, "hashchop"),
	})
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists), "got %v", err)
	assert.Equal(t, []string{"hashchop"}, errors.GetChain(err))
	assert.Contains(t, errors.GetErrorDetails(err), "first")
}

func TestLoadToleratesMissingDependencies(t *testing.T) {
	// missing names are reported by the installer, not at load time
	_, err := Load([]*formula.Formula{newFormula(t, "tangram", "hashchop")})
	assert.NoError(t, err)
}

func TestCheckCycles(t *testing.T) {
	tests := []struct {
		name      string
		formulas  func(t *testing.T) []*formula.Formula
		wantChain []string
	}{
		{
			name: "two node cycle",
			formulas: func(t *testing.T) []*formula.Formula {
				return []*formula.Formula{newFormula(t, "a", "b"), newFormula(t, "b", "a")}
			},
			wantChain: []string{"a", "b", "a"},
		},
		{
			name: "cycle below an acyclic root",
			formulas: func(t *testing.T) []*formula.Formula {
				return []*formula.Formula{
					newFormula(t, "app", "lib"),
					newFormula(t, "lib", "util"),
					newFormula(t, "util", "zlib"),
					newFormula(t, "zlib", "lib"),
				}
			},
			wantChain: []string{"lib", "util", "zlib", "lib"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.formulas(t))
			require.True(t, errors.IsErrorCode(err, errors.ErrCyclicDependency), "got %v", err)
			assert.Equal(t, tt.wantChain, errors.GetChain(err))
		})
	}

	t.Run("diamond is not a cycle", func(t *testing.T) {
		_, err := Load([]*formula.Formula{
			newFormula(t, "top", "left", "right"),
			newFormula(t, "left", "base"),
			newFormula(t, "right", "base"),
			newFormula(t, "base"),
		})
		assert.NoError(t, err)
	})
}

func TestInstalledSet(t *testing.T) {
	store := &memStore{names: []string{"hashchop"}}
	reg, err := Load([]*formula.Formula{
		newFormula(t, "tangram", "lua", "hashchop"),
		newFormula(t, "hashchop", "lua"),
	}, WithStore(store), WithProvided("lua"))
	require.NoError(t, err)

	assert.True(t, reg.IsInstalled("hashchop"), "seeded from store")
	assert.True(t, reg.IsInstalled("lua"), "provided by host")
	assert.True(t, reg.IsProvided("lua"))
	assert.False(t, reg.IsInstalled("tangram"))

	require.NoError(t, reg.MarkInstalled("tangram"))
	assert.True(t, reg.IsInstalled("tangram"))
	assert.Equal(t, []string{"tangram"}, store.recorded)

	require.NoError(t, reg.MarkInstalled("tangram"))
	assert.Equal(t, []string{"tangram"}, store.recorded, "second mark is a no-op")

	assert.Equal(t, []string{"hashchop", "tangram"}, reg.Installed())
}

func TestMarkInstalledStoreFailure(t *testing.T) {
	store := &memStore{writeErr: stderrors.New("disk full")}
	reg, err := Load([]*formula.Formula{newFormula(t, "hashchop")}, WithStore(store))
	require.NoError(t, err)

	err = reg.MarkInstalled("hashchop")
	assert.True(t, errors.IsErrorCode(err, errors.ErrStateWrite), "got %v", err)
	assert.False(t, reg.IsInstalled("hashchop"))
}

func TestLoadStoreReadFailure(t *testing.T) {
	store := &memStore{readErr: stderrors.New("permission denied")}
	_, err := Load(nil, WithStore(store))
	assert.True(t, errors.IsErrorCode(err, errors.ErrStateRead), "got %v", err)
}

func TestMarkInstalledWithoutStore(t *testing.T) {
	reg := NewFormulas()
	require.NoError(t, reg.MarkInstalled("anything"))
	assert.True(t, reg.IsInstalled("anything"))
}
