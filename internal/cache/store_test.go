package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	root := NewStore(Options{Prefix: "fp"})
	a := root.Namespace("a")
	b := root.Namespace("b")

	a.Set(ctx, "k", "va", time.Minute)
	b.Set(ctx, "k", "vb", time.Minute)

	got, ok := a.GetString(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "va", got)
	got, ok = b.GetString(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "vb", got)
	assert.False(t, root.Has(ctx, "k"))
}

func TestIncrementAndTTL(t *testing.T) {
	ctx := context.Background()
	s := NewStore(Options{})

	for i := int64(1); i <= 3; i++ {
		n, err := s.Increment(ctx, "login:alice", 1, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	remain, ok := s.TTL(ctx, "login:alice")
	require.True(t, ok)
	assert.LessOrEqual(t, remain, time.Minute)

	s.Delete(ctx, "login:alice")
	assert.False(t, s.Has(ctx, "login:alice"))
}

func TestJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(Options{})
	type probe struct {
		IP      string `json:"ip"`
		Latency int64  `json:"latency"`
	}

	require.NoError(t, s.SetJSON(ctx, "probe", probe{IP: "1.1.1.1", Latency: 42}, time.Minute))
	var got probe
	ok, err := s.GetJSON(ctx, "probe", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, probe{IP: "1.1.1.1", Latency: 42}, got)

	ok, err = s.GetJSON(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
