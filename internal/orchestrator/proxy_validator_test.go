package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

func newTestValidator(t *testing.T) (*ProxyValidator, *fakeBackend, *AppState) {
	t.Helper()
	backend := newFakeBackend()
	state := NewAppState()
	t.Cleanup(state.Close)
	backend.proxies = []domain.Proxy{
		{ID: "x1", Name: "hk", Type: domain.ProxyHTTP, Host: "1.1.1.1", Port: 80, IPAddress: "8.8.8.8", Location: "Hong Kong, HK", Status: domain.ProxyActive},
		{ID: "x2", Name: "us", Type: domain.ProxySOCKS5, Host: "2.2.2.2", Port: 1080, Status: domain.ProxyPending},
	}
	require.NoError(t, NewCatalog(backend, state, nil).Refresh(context.Background()))
	return NewProxyValidator(backend, state, nil), backend, state
}

func TestFailedProbeKeepsLocation(t *testing.T) {
	v, _, state := newTestValidator(t)

	result, err := v.Test(context.Background(), "x1")
	require.NoError(t, err)
	assert.False(t, result.Success)

	p, ok := state.Proxy("x1")
	require.True(t, ok)
	assert.Equal(t, domain.ProxyError, p.Status)
	assert.Equal(t, "8.8.8.8", p.IPAddress)
	assert.Equal(t, "Hong Kong, HK", p.Location)
}

func TestSuccessfulProbeUpdatesProxy(t *testing.T) {
	v, backend, state := newTestValidator(t)
	checked := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	backend.results["x2"] = domain.ProxyCheckResult{Success: true, Latency: 120, IP: "9.9.9.9", City: "Dallas", Country: "United States", CheckedAt: checked}

	results, err := v.BatchTest(context.Background(), []string{"x1", "x2", "x2"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Success, "a timeout only fails its own item")
	assert.True(t, results[1].Success)

	p, _ := state.Proxy("x2")
	assert.Equal(t, domain.ProxyActive, p.Status)
	assert.EqualValues(t, 120, p.Latency)
	assert.Equal(t, "9.9.9.9", p.IPAddress)
	assert.Equal(t, "Dallas, United States", p.Location)
	require.NotNil(t, p.LastCheckedAt)
	assert.True(t, checked.Equal(*p.LastCheckedAt))
}

func TestTestAllAppliesResults(t *testing.T) {
	v, backend, state := newTestValidator(t)
	backend.results["x1"] = domain.ProxyCheckResult{Success: true, Latency: 50, Location: "Tokyo, Japan"}

	results, err := v.TestAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 2)

	p1, _ := state.Proxy("x1")
	p2, _ := state.Proxy("x2")
	assert.Equal(t, "Tokyo, Japan", p1.Location)
	assert.Equal(t, domain.ProxyError, p2.Status)
}

func TestTestConfigValidatesBeforeCall(t *testing.T) {
	v, backend, _ := newTestValidator(t)
	ctx := context.Background()

	_, err := v.TestConfig(ctx, domain.ProxyHTTP, " ", 8080, "", "")
	require.ErrorIs(t, err, ErrInvalidProxy)
	_, err = v.TestConfig(ctx, domain.ProxySOCKS5, "h", 70000, "", "")
	require.ErrorIs(t, err, ErrInvalidProxy)
	_, err = v.TestConfig(ctx, "ftp", "h", 21, "", "")
	require.ErrorIs(t, err, ErrInvalidProxy)
	assert.Zero(t, backend.count("test_proxy_config"))

	result, err := v.TestConfig(ctx, domain.ProxyHTTPS, "proxy.local", 443, "u", "p")
	require.NoError(t, err)
	assert.True(t, result.Success)
	_, err = v.TestConfig(ctx, domain.ProxyDirect, "", 0, "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.count("test_proxy_config"))
}
