package tui

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/bootstrap"
	"github.com/creamcroissant/fpbrowser/internal/client"
	"github.com/creamcroissant/fpbrowser/internal/clientstate"
	"github.com/creamcroissant/fpbrowser/internal/config"
	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/orchestrator"
)

func newTestModel(t *testing.T, names ...string) Model {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DB:      config.DBConfig{Path: filepath.Join(dir, "fp.db")},
		Auth:    config.AuthConfig{BcryptCost: 4, LoginRateLimit: 5},
		Browser: config.BrowserConfig{KernelDir: filepath.Join(dir, "kernel"), Binary: "chrome", DataRoot: filepath.Join(dir, "profiles")},
	}
	backend, err := bootstrap.BuildBackend(context.Background(), cfg, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Handler)
	t.Cleanup(func() {
		srv.Close()
		backend.Close()
	})

	c := client.New(client.Options{BaseURL: srv.URL, RetryDelay: time.Millisecond})
	o := orchestrator.New(c, orchestrator.Options{Confirmer: orchestrator.AlwaysConfirm})
	t.Cleanup(o.Close)

	ctx := context.Background()
	for _, name := range names {
		_, err := o.Profiles.Create(ctx, domain.CreateProfileInput{Name: name})
		require.NoError(t, err)
	}

	m := NewModel(ctx, o, clientstate.Defaults(config.UIConfig{Locale: "en-US"}))
	m = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return drain(t, m, m.sync())
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// drain 同步执行命令并把结果消息送回模型。
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	return step(t, m, cmd())
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return next.(Model), cmd
}

func TestModelLoadsProfiles(t *testing.T) {
	m := newTestModel(t, "alpha", "beta")
	require.Len(t, m.profiles, 2)
	assert.Zero(t, m.busy)

	out := m.View()
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "beta")
	assert.Contains(t, out, "Total: 2 profiles")
}

func TestNavigationWraps(t *testing.T) {
	m := newTestModel(t, "alpha", "beta")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selectedProfile)
	m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.selectedProfile)
	m = step(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.selectedProfile)
}

func TestFilterNarrowsList(t *testing.T) {
	m := newTestModel(t, "alpha", "beta")
	m, _ = press(t, m, "/")
	require.True(t, m.filtering)
	m, _ = press(t, m, "ALP")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.filtering)
	require.Len(t, m.profiles, 1)
	assert.Equal(t, "alpha", m.profiles[0].Name)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.filter)
	assert.Len(t, m.profiles, 2)
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	m := newTestModel(t, "doomed")

	m, cmd := press(t, m, "d")
	require.NotNil(t, m.confirm)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "[y/n]")

	m, _ = press(t, m, "n")
	assert.Nil(t, m.confirm)
	assert.Len(t, m.profiles, 1)

	m, _ = press(t, m, "d")
	m, cmd = press(t, m, "y")
	m = drain(t, m, cmd)
	require.NoError(t, m.err)
	assert.Empty(t, m.profiles)
	assert.Contains(t, m.notice, "recycle bin")
}

func TestRecycleBinRestore(t *testing.T) {
	m := newTestModel(t, "keep")
	id := m.profiles[0].ID
	m, _ = press(t, m, "d")
	m, cmd := press(t, m, "y")
	m = drain(t, m, cmd)

	m, cmd = press(t, m, "b")
	require.Equal(t, ViewRecycleBin, m.view)
	m = drain(t, m, cmd)
	require.Len(t, m.bin, 1)
	assert.Contains(t, m.View(), "keep")

	m, _ = press(t, m, " ")
	assert.Equal(t, []string{id}, m.orch.Bin.Selected())

	m, cmd = press(t, m, "R")
	m = drain(t, m, cmd)
	require.NoError(t, m.err)
	assert.Empty(t, m.bin)
	_, ok := m.orch.State.Profile(id)
	assert.True(t, ok)
}

func TestLaunchFailureSurfacesError(t *testing.T) {
	m := newTestModel(t, "nokernel")
	id := m.profiles[0].ID

	m, cmd := press(t, m, "l")
	m = drain(t, m, cmd)
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "Error:")

	p, ok := m.orch.State.Profile(id)
	require.True(t, ok)
	assert.Equal(t, domain.StatusError, p.Status)
}

func TestDetailViewAndBack(t *testing.T) {
	m := newTestModel(t, "detail")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewDetail, m.view)
	assert.Contains(t, m.View(), "Profile: detail")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewProfiles, m.view)
	assert.Empty(t, m.detailID)
}

func TestPrefsCarryBinPage(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, 1, m.Prefs().LastPage)
	assert.Equal(t, 20, m.Prefs().PageSize)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "abcdefg", truncate("abcdefg", 7))
	assert.Equal(t, "abc...", truncate("abcdefgh", 6))
	assert.Equal(t, "窗口...", truncate("窗口环境管理", 5))
	assert.Equal(t, "direct", proxyLabel(nil))
	assert.Equal(t, "socks5://1.2.3.4:1080", proxyLabel(&domain.ProxyConfig{Type: domain.ProxySOCKS5, Host: "1.2.3.4", Port: 1080}))
	assert.Equal(t, "never", formatTime(nil))
	assert.Equal(t, 0, clamp(5, 0))
	assert.Equal(t, 2, clamp(5, 3))
	assert.NoError(t, batchError(0, 3))
	assert.EqualError(t, batchError(1, 3), "1 of 3 failed")
}
