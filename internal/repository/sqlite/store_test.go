package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/bootstrap"
	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/repository/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	db, err := bootstrap.OpenMigratedSQLite(filepath.Join(t.TempDir(), "fp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlite.NewStore(db)
}

func newProfile(id, name string) *domain.Profile {
	return &domain.Profile{
		ID:          id,
		Name:        name,
		Fingerprint: domain.DefaultFingerprint(),
	}
}

func TestProfileCreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).Profiles()

	first := newProfile("p1", "first")
	first.CreatedAt = time.Now().Add(-time.Minute)
	require.NoError(t, repo.Create(ctx, first))
	second := newProfile("p2", "second")
	second.Proxy = &domain.ProxyConfig{Type: domain.ProxySOCKS5, Host: "127.0.0.1", Port: 1080}
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.FindByID(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStopped, got.Status)
	assert.Equal(t, domain.DefaultGroupID, got.Group)
	require.NotNil(t, got.Proxy)
	assert.Equal(t, 1080, got.Proxy.Port)
	assert.Equal(t, first.Fingerprint, got.Fingerprint)

	list, err := repo.List(ctx, repository.ProfileListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].ID, "newest first")

	filtered, err := repo.List(ctx, repository.ProfileListFilter{Keyword: "fir"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "p1", filtered[0].ID)
}

func TestProfileSoftDeleteLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).Profiles()
	require.NoError(t, repo.Create(ctx, newProfile("p1", "one")))

	require.ErrorIs(t, repo.Restore(ctx, "p1"), repository.ErrNotDeleted)

	require.NoError(t, repo.SoftDelete(ctx, "p1", time.Now()))
	require.ErrorIs(t, repo.SoftDelete(ctx, "p1", time.Now()), repository.ErrNotFound)

	_, err := repo.FindByID(ctx, "p1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	live, err := repo.List(ctx, repository.ProfileListFilter{})
	require.NoError(t, err)
	assert.Empty(t, live)

	bin, err := repo.ListDeleted(ctx)
	require.NoError(t, err)
	require.Len(t, bin, 1)
	assert.False(t, bin[0].DeletedAt.IsZero())

	require.NoError(t, repo.Restore(ctx, "p1"))
	got, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFingerprint(), got.Fingerprint)

	require.ErrorIs(t, repo.Purge(ctx, "p1"), repository.ErrNotDeleted)
	require.ErrorIs(t, repo.Purge(ctx, "missing"), repository.ErrNotFound)
}

func TestProfilePurge(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).Profiles()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, newProfile(id, id)))
	}
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.SoftDelete(ctx, "a", old))
	require.NoError(t, repo.SoftDelete(ctx, "b", time.Now()))

	n, err := repo.PurgeDeletedBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.PurgeAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	live, err := repo.List(ctx, repository.ProfileListFilter{})
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "c", live[0].ID)
}

func TestProfileStatusAndReset(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).Profiles()
	require.NoError(t, repo.Create(ctx, newProfile("p1", "one")))

	opened := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.UpdateStatus(ctx, "p1", domain.StatusRunning, &opened))
	require.NoError(t, repo.UpdateStatus(ctx, "p1", domain.StatusRunning, nil))

	got, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, got.Status)
	require.NotNil(t, got.LastOpenTime)
	assert.True(t, opened.Equal(*got.LastOpenTime))

	n, err := repo.ResetTransient(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	running, err := repo.List(ctx, repository.ProfileListFilter{Statuses: []domain.ProfileStatus{domain.StatusRunning}})
	require.NoError(t, err)
	assert.Empty(t, running)
}

func TestGroupsCountAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	groups, err := store.Groups().List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, domain.DefaultGroupID, groups[0].ID)

	require.NoError(t, store.Groups().Create(ctx, &domain.Group{ID: "g1", Name: "work", Sort: 1}))
	require.ErrorIs(t, store.Groups().Create(ctx, &domain.Group{ID: "g2", Name: "work"}), repository.ErrConflict)

	p := newProfile("p1", "one")
	p.Group = "g1"
	require.NoError(t, store.Profiles().Create(ctx, p))

	g, err := store.Groups().FindByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, g.ProfileCount)

	require.NoError(t, store.Profiles().SoftDelete(ctx, "p1", time.Now()))
	g, err = store.Groups().FindByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 0, g.ProfileCount)

	require.NoError(t, store.Groups().Delete(ctx, "g1"))
	bin, err := store.Profiles().ListDeleted(ctx)
	require.NoError(t, err)
	require.Len(t, bin, 1)
	assert.Equal(t, domain.DefaultGroupID, bin[0].Group)
}

func TestTagsForProfile(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Profiles().Create(ctx, newProfile("p1", "one")))
	require.NoError(t, store.Tags().Create(ctx, &domain.Tag{ID: "t1", Name: "shop"}))
	require.NoError(t, store.Tags().Create(ctx, &domain.Tag{ID: "t2", Name: "ads"}))

	require.NoError(t, store.Tags().SetForProfile(ctx, "p1", []string{"t1", "t2"}))
	tags, err := store.Tags().ListForProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	require.NoError(t, store.Tags().SetForProfile(ctx, "p1", []string{"t2"}))
	tags, err = store.Tags().ListForProfile(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "t2", tags[0].ID)
	assert.Equal(t, 1, tags[0].WindowCount)

	require.NoError(t, store.Tags().Delete(ctx, "t2"))
	tags, err = store.Tags().ListForProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestProxyRecordCheck(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).Proxies()
	require.NoError(t, repo.Create(ctx, &domain.Proxy{ID: "x1", Name: "hk", Type: domain.ProxyHTTP, Host: "10.0.0.1", Port: 8080}))

	require.NoError(t, repo.RecordCheck(ctx, domain.ProxyCheckResult{ProxyID: "x1", Success: true, IP: "1.2.3.4", Location: "Hong Kong, China", Latency: 120}))
	require.NoError(t, repo.RecordCheck(ctx, domain.ProxyCheckResult{ProxyID: "x1", Success: false, Error: "timeout"}))

	got, err := repo.FindByID(ctx, "x1")
	require.NoError(t, err)
	assert.Equal(t, domain.ProxyError, got.Status)
	assert.Equal(t, "1.2.3.4", got.IPAddress)
	assert.Equal(t, "Hong Kong, China", got.Location)
	assert.NotNil(t, got.LastCheckedAt)

	require.NoError(t, repo.RecordCheck(ctx, domain.ProxyCheckResult{ProxyID: "x1", Success: true, Location: "unknown", Latency: 80}))
	got, err = repo.FindByID(ctx, "x1")
	require.NoError(t, err)
	assert.Equal(t, domain.ProxyActive, got.Status)
	assert.Equal(t, "1.2.3.4", got.IPAddress)
	assert.Equal(t, "unknown", got.Location)
	assert.EqualValues(t, 80, got.Latency)

	require.ErrorIs(t, repo.RecordCheck(ctx, domain.ProxyCheckResult{ProxyID: "nope"}), repository.ErrNotFound)

	require.NoError(t, repo.SetAutoCheck(ctx, "x1", true))
	auto, err := repo.ListAutoCheck(ctx)
	require.NoError(t, err)
	assert.Len(t, auto, 1)
}

func TestSettingsUpsert(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).Settings()

	_, err := repo.Get(ctx, "license")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, &repository.Setting{Key: "license", Value: "a"}))
	require.NoError(t, repo.Upsert(ctx, &repository.Setting{Key: "license", Value: "b"}))
	got, err := repo.Get(ctx, "license")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Value)
}
