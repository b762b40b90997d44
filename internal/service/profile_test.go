package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/fingerprint"
	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/service"
)

func newProfileService(t *testing.T) (service.ProfileService, repository.Store, *recorder) {
	t.Helper()
	store := newStore(t)
	rec := &recorder{}
	return service.NewProfileService(store, nil, rec, nil), store, rec
}

func TestProfileCreateDefaults(t *testing.T) {
	svc, _, rec := newProfileService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, domain.CreateProfileInput{
		Name:        "  <b>Shop</b> A ",
		Fingerprint: map[string]any{"language": "en-US", "hardwareConcurrency": 4},
	})
	require.NoError(t, err)

	assert.Equal(t, "Shop A", p.Name)
	assert.Equal(t, domain.DefaultGroupID, p.Group)
	assert.Equal(t, domain.StatusStopped, p.Status)
	assert.Equal(t, "en-US", p.Fingerprint.Language)
	assert.Equal(t, 4, p.Fingerprint.HardwareConcurrency)
	assert.Equal(t, "windows", p.Fingerprint.Platform)
	assert.Equal(t, fingerprint.SchemaVersion, p.Fingerprint.SchemaVersion)
	assert.Equal(t, []events.Name{events.ProfileCreated}, rec.names())

	list, err := svc.List(ctx, repository.ProfileListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusStopped, list[0].Status)
}

func TestProfileCreateRejectsBlacklistAndBlankName(t *testing.T) {
	svc, _, rec := newProfileService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateProfileInput{Name: "x", Fingerprint: map[string]any{"launchArgs": "--foo"}})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	var blacklisted *fingerprint.BlacklistError
	require.ErrorAs(t, err, &blacklisted)
	assert.Equal(t, []string{"launchArgs"}, blacklisted.Fields)

	_, err = svc.Create(ctx, domain.CreateProfileInput{Name: "   "})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.Create(ctx, domain.CreateProfileInput{Name: "x", Group: "missing"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.Create(ctx, domain.CreateProfileInput{Name: "x", Proxy: &domain.ProxyConfig{Type: domain.ProxyHTTP, Host: "h", Port: 0}})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Empty(t, rec.names())
}

func TestProfileUpdateMergesFingerprint(t *testing.T) {
	svc, _, _ := newProfileService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, domain.CreateProfileInput{Name: "a", Fingerprint: map[string]any{"timezone": "Europe/Berlin"}})
	require.NoError(t, err)

	remark := "note"
	updated, err := svc.Update(ctx, p.ID, domain.UpdateProfileInput{
		Remark:      &remark,
		Fingerprint: map[string]any{"deviceMemory": 32, "unknownField": true},
	})
	require.NoError(t, err)
	assert.Equal(t, 32, updated.Fingerprint.DeviceMemory)
	assert.Equal(t, "Europe/Berlin", updated.Fingerprint.Timezone)
	assert.Equal(t, "note", updated.Remark)

	_, err = svc.Update(ctx, p.ID, domain.UpdateProfileInput{Fingerprint: map[string]any{"userDataDir": "/tmp"}})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	stored, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 32, stored.Fingerprint.DeviceMemory)
}

func TestProfileDeleteGuardsRunning(t *testing.T) {
	svc, store, _ := newProfileService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, domain.CreateProfileInput{Name: "a"})
	require.NoError(t, err)
	require.NoError(t, store.Profiles().UpdateStatus(ctx, p.ID, domain.StatusRunning, nil))

	assert.ErrorIs(t, svc.Delete(ctx, p.ID), service.ErrProfileRunning)

	require.NoError(t, store.Profiles().UpdateStatus(ctx, p.ID, domain.StatusStopped, nil))
	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.ErrorIs(t, svc.Delete(ctx, p.ID), service.ErrProfileNotFound)
}

func TestProfileBatchDeletePartialFailure(t *testing.T) {
	svc, store, _ := newProfileService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, domain.CreateProfileInput{Name: "a"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, domain.CreateProfileInput{Name: "b"})
	require.NoError(t, err)
	require.NoError(t, store.Profiles().UpdateStatus(ctx, b.ID, domain.StatusRunning, nil))

	res := svc.BatchDelete(ctx, []string{a.ID, b.ID, "missing", a.ID})
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 2, res.FailureCount)
	assert.Equal(t, []string{a.ID}, res.SucceededIDs())
}

func TestProfileMoveAndDuplicate(t *testing.T) {
	svc, store, _ := newProfileService(t)
	ctx := context.Background()
	group := &domain.Group{ID: "g1", Name: "team"}
	require.NoError(t, store.Groups().Create(ctx, group))

	p, err := svc.Create(ctx, domain.CreateProfileInput{
		Name:  "src",
		Proxy: &domain.ProxyConfig{Type: domain.ProxySOCKS5, Host: "127.0.0.1", Port: 1080},
	})
	require.NoError(t, err)

	res := svc.MoveToGroup(ctx, []string{p.ID}, "g1")
	assert.True(t, res.AllSucceeded())
	moved, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "g1", moved.Group)

	res = svc.MoveToGroup(ctx, []string{p.ID}, "nope")
	assert.True(t, res.AllFailed())

	dup, err := svc.Duplicate(ctx, p.ID)
	require.NoError(t, err)
	assert.NotEqual(t, p.ID, dup.ID)
	assert.Equal(t, "src (copy)", dup.Name)
	assert.Equal(t, "g1", dup.Group)
	assert.Equal(t, domain.StatusStopped, dup.Status)
	assert.Equal(t, moved.Fingerprint, dup.Fingerprint)
	require.NotNil(t, dup.Proxy)
	assert.Equal(t, 1080, dup.Proxy.Port)

	batch := svc.BatchDuplicate(ctx, []string{p.ID, "missing"})
	assert.True(t, batch.PartiallySucceeded())
}
