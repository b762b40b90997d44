package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedLocalesShareKeys(t *testing.T) {
	m := MustDefault()
	assert.Equal(t, []string{"en-US", "zh-CN"}, m.GetSupportedLanguages())

	m.mu.RLock()
	defer m.mu.RUnlock()
	for key := range m.translations["en-US"] {
		_, ok := m.translations["zh-CN"][key]
		assert.True(t, ok, "zh-CN missing %s", key)
	}
	assert.Len(t, m.translations["zh-CN"], len(m.translations["en-US"]))
}

func TestMatchFallsBack(t *testing.T) {
	m := MustDefault()
	assert.Equal(t, "zh-CN", m.Match("zh-CN"))
	assert.Equal(t, "zh-CN", m.Match("zh"))
	assert.Equal(t, "en-US", m.Match("en-GB"))
	assert.Equal(t, "en-US", m.Match("fr-FR"))
	assert.Equal(t, "en-US", m.Match("not a tag"))
}

func TestTranslate(t *testing.T) {
	m := MustDefault()
	assert.Equal(t, "Recycle Bin  (page 2/3)", m.Translate("en-US", "tui.bin.title", 2, 3))
	assert.Equal(t, "回收站为空。", m.Translate("zh-CN", "tui.bin.empty"))
	assert.Equal(t, "missing.key", m.Translate("zh-CN", "missing.key"))

	tr := m.For("zh")
	assert.Equal(t, "已启动 a", tr("tui.notice.launched", "a"))
}

func TestLoadFromDirOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en-US.json"), []byte(`{"tui.cancelled":"Never mind"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ja-JP.json"), []byte(`{"tui.cancelled":"キャンセル"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{`), 0o644))

	m := MustDefault()
	require.NoError(t, m.LoadFromDir(dir))
	assert.Equal(t, "Never mind", m.Translate("en-US", "tui.cancelled"))
	assert.Equal(t, "キャンセル", m.Translate("ja", "tui.cancelled"))
	assert.Equal(t, "Loading...", m.Translate("ja-JP", "tui.loading"))

	assert.NoError(t, m.LoadFromDir(filepath.Join(dir, "missing")))
}
