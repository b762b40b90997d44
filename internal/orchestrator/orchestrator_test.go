package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/wire"
)

func newTestOrchestrator(t *testing.T, confirm Confirmer) (*Orchestrator, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	o := New(backend, Options{Confirmer: confirm})
	t.Cleanup(o.Close)
	return o, backend
}

// replaySubscriber 连接一次，依次投递预置事件后返回。
type replaySubscriber struct {
	events []events.Event
}

func (s *replaySubscriber) Subscribe(_ context.Context, onConnect func(), fn func(events.Event)) error {
	onConnect()
	for _, evt := range s.events {
		fn(evt)
	}
	return nil
}

func TestRunSyncsThenAppliesEvents(t *testing.T) {
	o, backend := newTestOrchestrator(t, nil)
	backend.seed(domain.Profile{ID: "p1", Name: "first"})
	backend.tags = []domain.Tag{{ID: "t1", Name: "vip"}}

	second := domain.Profile{ID: "p2", Name: "second", Group: "default", Status: domain.StatusStopped, Fingerprint: domain.DefaultFingerprint()}
	sub := &replaySubscriber{events: []events.Event{
		mustEvent(t, events.ProfileCreated, wire.ProfileToWire(second)),
		mustEvent(t, events.ProfileStatusChanged, events.StatusChangedPayload{ProfileID: "p1", Status: "running"}),
		mustEvent(t, events.TagDeleted, events.IDPayload{ID: "t1"}),
		mustEvent(t, events.KernelDownloadProgress, map[string]int{"percent": 10}),
	}}

	require.NoError(t, o.Run(context.Background(), sub))

	profiles := o.State.Profiles()
	require.Len(t, profiles, 2)
	assert.Equal(t, "p2", profiles[0].ID)
	p1, _ := o.State.Profile("p1")
	assert.Equal(t, domain.StatusRunning, p1.Status)
	assert.Empty(t, o.State.Tags())
	assert.Len(t, o.State.Groups(), 1)
}

func TestSyncJoinsErrors(t *testing.T) {
	o, backend := newTestOrchestrator(t, nil)
	backend.fail["get_profiles"] = errBoom
	backend.fail["get_tags"] = errBoom

	err := o.Sync(context.Background())
	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "refresh profiles")
	assert.Contains(t, err.Error(), "refresh tags")
	assert.Len(t, o.State.Groups(), 1, "groups still refresh when tags fail")
}
