package orchestrator_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/bootstrap"
	"github.com/creamcroissant/fpbrowser/internal/client"
	"github.com/creamcroissant/fpbrowser/internal/config"
	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/fingerprint"
	"github.com/creamcroissant/fpbrowser/internal/orchestrator"
)

// newStack 启动真实后端（sqlite + HTTP），返回指向它的客户端与编排器。
func newStack(t *testing.T) (*orchestrator.Orchestrator, *client.Client) {
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
	require.NoError(t, o.Sync(context.Background()))
	return o, c
}

func TestEndToEndProfileLifecycle(t *testing.T) {
	o, _ := newStack(t)
	ctx := context.Background()

	created, err := o.Profiles.Create(ctx, domain.CreateProfileInput{
		Name:        "e2e",
		Fingerprint: map[string]any{"timezone": "Europe/Paris", "language": "fr-FR"},
		Proxy:       &domain.ProxyConfig{Type: domain.ProxySOCKS5, Host: "127.0.0.1", Port: 1080},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStopped, created.Status)
	assert.Equal(t, domain.DefaultGroupID, created.Group)

	require.NoError(t, o.Profiles.Refresh(ctx))
	listed, ok := o.State.Profile(created.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusStopped, listed.Status)
	assert.Equal(t, "Europe/Paris", listed.Fingerprint.Timezone)

	_, err = o.Profiles.Update(ctx, created.ID, domain.UpdateProfileInput{
		Fingerprint: map[string]any{"launchArgs": "--remote-debugging-port=9222"},
	})
	var blErr *fingerprint.BlacklistError
	require.ErrorAs(t, err, &blErr)

	require.NoError(t, o.Profiles.Delete(ctx, created.ID))
	binned, err := o.Bin.Load(ctx)
	require.NoError(t, err)
	require.Len(t, binned, 1)

	require.NoError(t, o.Bin.Restore(ctx, created.ID))
	restored, ok := o.State.Profile(created.ID)
	require.True(t, ok)
	assert.Equal(t, listed.Fingerprint, restored.Fingerprint)
	assert.Equal(t, listed.Proxy, restored.Proxy)
}

func TestEndToEndLaunchWithoutKernelFails(t *testing.T) {
	o, _ := newStack(t)
	ctx := context.Background()

	created, err := o.Profiles.Create(ctx, domain.CreateProfileInput{Name: "no-kernel"})
	require.NoError(t, err)

	_, err = o.Profiles.Launch(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, client.StatusCode(err))

	p, _ := o.State.Profile(created.ID)
	assert.Equal(t, domain.StatusError, p.Status)
}

func TestEndToEndDefaultGroupProtected(t *testing.T) {
	o, c := newStack(t)
	ctx := context.Background()

	require.ErrorIs(t, o.Catalog.DeleteGroup(ctx, domain.DefaultGroupID), orchestrator.ErrDefaultGroup)

	err := c.DeleteGroup(ctx, domain.DefaultGroupID)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, client.StatusCode(err))
}

func TestEndToEndEventsReachState(t *testing.T) {
	o, c := newStack(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connected := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Subscribe(ctx, func() {
			select {
			case connected <- struct{}{}:
			default:
			}
		}, func(evt events.Event) {
			_ = o.HandleEvent(ctx, evt)
		})
	}()
	<-connected

	// 绕过编排器直接调用后端，缓存只能通过事件得知新窗口。
	p, err := c.CreateProfile(ctx, domain.CreateProfileInput{Name: "from-elsewhere"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := o.State.Profile(p.ID)
		return ok
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("subscription did not stop")
	}
}
