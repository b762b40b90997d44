package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/metrics"
	"github.com/creamcroissant/fpbrowser/internal/service"
)

type browserFixture struct {
	profiles service.ProfileService
	browsers service.BrowserService
	launcher *fakeLauncher
	events   *recorder
}

func newBrowserFixture(t *testing.T) browserFixture {
	t.Helper()
	store := newStore(t)
	rec := &recorder{}
	launcher := newFakeLauncher()
	return browserFixture{
		profiles: service.NewProfileService(store, nil, nil, nil),
		browsers: service.NewBrowserService(store, launcher, nil, service.BrowserOptions{LaunchTimeout: time.Second}, rec, metrics.New("test", nil), nil),
		launcher: launcher,
		events:   rec,
	}
}

func (f browserFixture) create(t *testing.T, name string) string {
	t.Helper()
	p, err := f.profiles.Create(context.Background(), domain.CreateProfileInput{Name: name})
	require.NoError(t, err)
	return p.ID
}

func TestBrowserLaunchStopCycle(t *testing.T) {
	f := newBrowserFixture(t)
	ctx := context.Background()
	id := f.create(t, "a")

	p, err := f.browsers.Launch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, p.Status)
	require.NotNil(t, p.LastOpenTime)

	stored, err := f.profiles.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, stored.Status)
	assert.NotNil(t, stored.LastOpenTime)

	_, err = f.browsers.Launch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, f.launcher.launches)

	require.NoError(t, f.browsers.Stop(ctx, id))
	require.NoError(t, f.browsers.Stop(ctx, id))
	stored, err = f.profiles.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStopped, stored.Status)

	assert.Equal(t, []string{"launching", "running", "stopping", "stopped"}, f.events.statuses(id))

	var steps []events.LaunchStep
	for _, e := range f.events.events {
		if p, ok := e.Payload.(events.LaunchProgressPayload); ok {
			assert.Equal(t, len(events.LaunchSteps), p.Total)
			steps = append(steps, p.Step)
		}
	}
	assert.Equal(t, events.LaunchSteps, steps)
}

func TestBrowserLaunchFailureSetsError(t *testing.T) {
	f := newBrowserFixture(t)
	ctx := context.Background()
	id := f.create(t, "a")
	f.launcher.launchErr = errBoom

	_, err := f.browsers.Launch(ctx, id)
	require.ErrorIs(t, err, errBoom)

	stored, err := f.profiles.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, stored.Status)
	assert.Contains(t, f.events.names(), events.BrowserError)

	_, err = f.browsers.Launch(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrProfileNotFound)
}

func TestBrowserBatchLaunchAndStop(t *testing.T) {
	f := newBrowserFixture(t)
	ctx := context.Background()
	ids := []string{f.create(t, "a"), f.create(t, "b"), "missing"}

	res := f.browsers.BatchLaunch(ctx, ids)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, "missing", res.Results[2].ProfileID)
	assert.False(t, res.Results[2].OK)

	res = f.browsers.BatchStop(ctx, ids[:2])
	assert.True(t, res.AllSucceeded())
	assert.Empty(t, f.launcher.Running())
}

func TestBrowserConcurrentLaunchStopSerializes(t *testing.T) {
	f := newBrowserFixture(t)
	ctx := context.Background()
	id := f.create(t, "a")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _, _ = f.browsers.Launch(ctx, id) }()
		go func() { defer wg.Done(); _ = f.browsers.Stop(ctx, id) }()
	}
	wg.Wait()

	stored, err := f.profiles.Get(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, []domain.ProfileStatus{domain.StatusRunning, domain.StatusStopped}, stored.Status)
	assert.Equal(t, stored.Status == domain.StatusRunning, f.launcher.Alive(id))
}

func TestBrowserReapMarksExitedStopped(t *testing.T) {
	f := newBrowserFixture(t)
	ctx := context.Background()
	id := f.create(t, "a")
	_, err := f.browsers.Launch(ctx, id)
	require.NoError(t, err)

	n, err := f.browsers.Reap(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.launcher.crash(id)
	n, err = f.browsers.Reap(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := f.profiles.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStopped, stored.Status)
}

func TestBrowserKernelWithoutKernel(t *testing.T) {
	f := newBrowserFixture(t)
	assert.False(t, f.browsers.KernelInstalled())
	_, err := f.browsers.KernelVersion(context.Background())
	assert.Error(t, err)
}
