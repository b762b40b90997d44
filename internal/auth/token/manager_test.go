package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, access time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(Options{SigningKey: []byte("test-key"), Issuer: "fpbrowser", AccessTTL: access})
	require.NoError(t, err)
	return m
}

func TestIssueAndParsePair(t *testing.T) {
	m := newManager(t, time.Hour)
	pair, err := m.IssuePair("u1", "alice")
	require.NoError(t, err)

	claims, err := m.Parse(pair.Access, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)

	_, err = m.Parse(pair.Access, KindRefresh)
	assert.ErrorIs(t, err, ErrWrongKind)

	_, err = m.Parse(pair.Refresh, KindRefresh)
	assert.NoError(t, err)
}

func TestParseRejectsForeignAndExpired(t *testing.T) {
	m := newManager(t, time.Hour)
	other, err := NewManager(Options{SigningKey: []byte("other"), Issuer: "fpbrowser"})
	require.NoError(t, err)
	pair, err := other.IssuePair("u1", "alice")
	require.NoError(t, err)

	_, err = m.Parse(pair.Access, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := newManager(t, time.Nanosecond)
	pair, err = expired.IssuePair("u1", "alice")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, err = expired.Parse(pair.Access, KindAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewManagerRequiresKey(t *testing.T) {
	_, err := NewManager(Options{})
	assert.Error(t, err)
}
