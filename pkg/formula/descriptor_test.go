package formula

import (
	"testing"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{
		"tangram.toml": FormatTOML,
		"a/b/c.YAML":   FormatYAML,
		"hashchop.yml": FormatYAML,
	} {
		got, ok := FormatFromPath(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}

	_, ok := FormatFromPath("tangram.rb")
	assert.False(t, ok)
}

func TestParseTOML(t *testing.T) {
	data := []byte(`
name = "tangram"
homepage = "https://github.com/silentbicycle/tangram"
url = "https://github.com/silentbicycle/tangram/archive/v0.1-0.tar.gz"
sha1 = "74e0c4000982139eae3abe82ce7f3d51b24f1dc4"
version = "0.1-0"
depends_on = ["lua", "luarocks", "hashchop"]
install = "luarocks install tangram-0.1-0.rockspec"
test = "tangram test"
`)
	f, err := Parse(data, FormatTOML, "tangram.toml")
	require.NoError(t, err)

	assert.Equal(t, "tangram", f.Name)
	assert.Equal(t, "https://github.com/silentbicycle/tangram", f.Homepage)
	assert.Equal(t, hashutil.SHA1, f.Checksum.Algorithm)
	assert.Equal(t, "74e0c4000982139eae3abe82ce7f3d51b24f1dc4", f.Checksum.Digest)
	assert.Equal(t, []string{"lua", "luarocks", "hashchop"}, f.Dependencies)
	assert.Equal(t, "tangram test", f.Test)
	assert.Equal(t, "tangram.toml", f.Source)
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
name: hashchop
url: https://github.com/silentbicycle/hashchop/archive/master.tar.gz
checksum: sha1:3452e20fb41e5a0f04a09b69e9978587030dfd75
version: "0.8-0"
install: luarocks install hashchop-0.8-0.rockspec
`)
	f, err := Parse(data, FormatYAML, "hashchop.yaml")
	require.NoError(t, err)

	assert.Equal(t, "hashchop", f.Name)
	assert.Equal(t, "0.8-0", f.Version)
	assert.Empty(t, f.Dependencies)
	assert.False(t, f.HasTest())
}

func TestParseDerivesNameFromSource(t *testing.T) {
	data := []byte(`
url = "https://example.com/lpeg.tar.gz"
sha256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
version = "1.0"
install = "luarocks install lpeg"
`)
	f, err := Parse(data, FormatTOML, "/taps/core/lpeg.toml")
	require.NoError(t, err)
	assert.Equal(t, "lpeg", f.Name)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
		code   errors.ErrorCode
	}{
		{
			name:   "unknown key",
			data:   "name = \"x\"\nsha = \"abc\"\n",
			format: FormatTOML,
			code:   errors.ErrFormulaParse,
		},
		{
			name:   "malformed yaml",
			data:   "name: [unclosed\n",
			format: FormatYAML,
			code:   errors.ErrFormulaParse,
		},
		{
			name: "two checksums",
			data: `name = "x"
url = "https://example.com/x.tar.gz"
sha1 = "3452e20fb41e5a0f04a09b69e9978587030dfd75"
checksum = "sha1:3452e20fb41e5a0f04a09b69e9978587030dfd75"
version = "1"
install = "true"
`,
			format: FormatTOML,
			code:   errors.ErrFormulaInvalid,
		},
		{
			name: "short digest",
			data: `name = "x"
url = "https://example.com/x.tar.gz"
sha256 = "abcd"
version = "1"
install = "true"
`,
			format: FormatTOML,
			code:   errors.ErrFormulaInvalid,
		},
		{
			name: "no checksum",
			data: `name = "x"
url = "https://example.com/x.tar.gz"
version = "1"
install = "true"
`,
			format: FormatTOML,
			code:   errors.ErrFormulaInvalid,
		},
		{
			name:   "unknown format",
			data:   "{}",
			format: Format("json"),
			code:   errors.ErrFormulaParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format, "x."+string(tt.format))
			assert.True(t, errors.IsErrorCode(err, tt.code), "got %v", err)
		})
	}
}
