package browser

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/cache"
	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
)

func fakeKernel(t *testing.T) Options {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script kernel requires a POSIX shell")
	}
	root := t.TempDir()
	kernelDir := filepath.Join(root, "kernel")
	require.NoError(t, os.MkdirAll(kernelDir, 0o755))
	script := "#!/bin/sh\nexec sleep 30\n"
	require.NoError(t, os.WriteFile(filepath.Join(kernelDir, "chrome"), []byte(script), 0o755))
	return Options{
		KernelDir: kernelDir,
		Binary:    "chrome",
		DataRoot:  filepath.Join(root, "data"),
		StopGrace: time.Second,
	}
}

func TestLaunchAndStop(t *testing.T) {
	opts := fakeKernel(t)
	l := NewProcessLauncher(opts, nil)
	ctx := context.Background()

	var steps []events.LaunchStep
	profile := domain.Profile{
		ID:          "p1",
		Fingerprint: domain.DefaultFingerprint(),
		Proxy:       &domain.ProxyConfig{Type: domain.ProxySOCKS5, Host: "127.0.0.1", Port: 1080},
	}
	pid, err := l.Launch(ctx, profile, func(step events.LaunchStep, _ string) {
		steps = append(steps, step)
	})
	require.NoError(t, err)
	assert.Positive(t, pid)
	assert.Equal(t, events.LaunchSteps, steps)
	assert.True(t, l.Alive("p1"))
	assert.Equal(t, []string{"p1"}, l.Running())
	assert.FileExists(t, filepath.Join(opts.DataRoot, "p1", "fingerprint.json"))

	again, err := l.Launch(ctx, profile, nil)
	require.NoError(t, err)
	assert.Equal(t, pid, again)

	require.NoError(t, l.Stop(ctx, "p1"))
	assert.Eventually(t, func() bool { return !l.Alive("p1") }, 3*time.Second, 50*time.Millisecond)
	assert.ErrorIs(t, l.Stop(ctx, "p1"), ErrNotRunning)
}

func TestLaunchWithoutKernel(t *testing.T) {
	l := NewProcessLauncher(Options{KernelDir: t.TempDir(), Binary: "missing", DataRoot: t.TempDir()}, nil)
	_, err := l.Launch(context.Background(), domain.Profile{ID: "p1"}, nil)
	assert.ErrorIs(t, err, ErrKernelNotInstalled)
}

func TestKernelVersionAndUninstall(t *testing.T) {
	opts := fakeKernel(t)
	require.NoError(t, os.WriteFile(filepath.Join(opts.KernelDir, "VERSION"), []byte("131.0.1\n"), 0o644))
	l := NewProcessLauncher(opts, nil)
	k := NewKernel(l, cache.NewStore(cache.Options{}))
	ctx := context.Background()

	assert.True(t, k.Installed())
	v, err := k.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "131.0.1", v)

	_, err = l.Launch(ctx, domain.Profile{ID: "p1"}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, k.Uninstall(ctx), ErrBrowsersRunning)

	require.NoError(t, l.Stop(ctx, "p1"))
	require.Eventually(t, func() bool { return len(l.Running()) == 0 }, 3*time.Second, 50*time.Millisecond)
	require.NoError(t, k.Uninstall(ctx))
	assert.False(t, k.Installed())
	_, err = k.Version(ctx)
	assert.ErrorIs(t, err, ErrKernelNotInstalled)
}

func TestProxyFlag(t *testing.T) {
	assert.Equal(t, "", proxyFlag(nil))
	assert.Equal(t, "", proxyFlag(&domain.ProxyConfig{Type: domain.ProxyDirect}))
	assert.Equal(t, "--proxy-server=http://h:8080", proxyFlag(&domain.ProxyConfig{Type: domain.ProxyHTTP, Host: "h", Port: 8080}))
}
