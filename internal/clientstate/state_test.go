package clientstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	defaults := Defaults(config.UIConfig{Theme: "dark", Locale: "en-us", PageSize: 50})
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), defaults)
	require.NoError(t, err)
	assert.Equal(t, State{Theme: ThemeDark, Locale: "en-US", PageSize: 50, LastPage: 1}, s)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")
	want := State{Theme: ThemeLight, Locale: "fr-FR", PageSize: 100, LastPage: 3}
	require.NoError(t, Save(path, want))

	got, err := Load(path, Defaults(config.UIConfig{}))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")
}

func TestLoadNormalizesInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: neon\nlocale: \"!!\"\npage_size: -4\nlast_page: 0\n"), 0o644))

	s, err := Load(path, Defaults(config.UIConfig{}))
	require.NoError(t, err)
	assert.Equal(t, ThemeSystem, s.Theme)
	assert.Equal(t, "zh-CN", s.Locale)
	assert.Equal(t, defaultPageSize, s.PageSize)
	assert.Equal(t, 1, s.LastPage)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: [unterminated"), 0o644))

	defaults := Defaults(config.UIConfig{})
	s, err := Load(path, defaults)
	require.Error(t, err)
	assert.Equal(t, defaults, s)
}
