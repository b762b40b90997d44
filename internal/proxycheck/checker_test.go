package proxycheck

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

func ipAPI(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestProxyURL(t *testing.T) {
	got, err := ProxyURL(domain.ProxyTestConfig{Type: domain.ProxyHTTP, Host: "127.0.0.1", Port: 8080})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", got)

	got, err = ProxyURL(domain.ProxyTestConfig{Type: domain.ProxySOCKS5, Host: "10.0.0.2", Port: 1080, Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "socks5://u:p@10.0.0.2:1080", got)

	got, err = ProxyURL(domain.ProxyTestConfig{Type: domain.ProxyHTTPS, Host: "h", Port: 443, Username: "only"})
	require.NoError(t, err)
	assert.Equal(t, "https://only@h:443", got)

	_, err = ProxyURL(domain.ProxyTestConfig{Type: "ftp", Host: "h", Port: 21})
	assert.Error(t, err)
	_, err = ProxyURL(domain.ProxyTestConfig{Type: domain.ProxyHTTP, Host: "h"})
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "Tokyo, Japan", Location("Tokyo", "Japan"))
	assert.Equal(t, "Japan", Location("", "Japan"))
}

func TestCheckDirectSuccess(t *testing.T) {
	srv := ipAPI(`{"status":"success","query":"1.2.3.4","country":"Japan","countryCode":"JP","city":"Tokyo","isp":"NTT"}`)
	defer srv.Close()

	c := New(Options{Endpoint: srv.URL, Timeout: time.Second}, nil)
	res := c.Check(context.Background(), "d1", domain.ProxyTestConfig{Type: domain.ProxyDirect})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "1.2.3.4", res.IP)
	assert.Equal(t, "Tokyo, Japan", res.Location)
	assert.Equal(t, "JP", res.CountryCode)
	assert.False(t, res.CheckedAt.IsZero())
}

func TestCheckReleasesConnections(t *testing.T) {
	var opened, closed atomic.Int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","query":"1.2.3.4"}`))
	}))
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		switch state {
		case http.StateNew:
			opened.Add(1)
		case http.StateClosed:
			closed.Add(1)
		}
	}
	srv.Start()
	defer srv.Close()

	c := New(Options{Endpoint: srv.URL, Timeout: time.Second, Concurrency: 2}, nil)
	targets := make([]Target, 4)
	for i := range targets {
		targets[i] = Target{ID: "d", Config: domain.ProxyTestConfig{Type: domain.ProxyDirect}}
	}
	for _, res := range c.CheckMany(context.Background(), targets) {
		require.True(t, res.Success, res.Error)
	}

	assert.Eventually(t, func() bool {
		return opened.Load() > 0 && closed.Load() == opened.Load()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCheckThroughHTTPProxy(t *testing.T) {
	var proxied atomic.Bool
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied.Store(r.URL.Host == "ip-api.test")
		_, _ = w.Write([]byte(`{"status":"success","query":"5.6.7.8","country":"Germany","city":""}`))
	}))
	defer proxy.Close()
	host, port := splitAddr(t, proxy.Listener.Addr().String())

	c := New(Options{Endpoint: "http://ip-api.test/json", Timeout: time.Second}, nil)
	res := c.Check(context.Background(), "p1", domain.ProxyTestConfig{Type: domain.ProxyHTTP, Host: host, Port: port})

	require.True(t, res.Success, res.Error)
	assert.True(t, proxied.Load())
	assert.Equal(t, "Germany", res.Location)
}

func TestCheckFailStatus(t *testing.T) {
	srv := ipAPI(`{"status":"fail","message":"reserved range"}`)
	defer srv.Close()

	res := New(Options{Endpoint: srv.URL}, nil).Check(context.Background(), "x", domain.ProxyTestConfig{Type: domain.ProxyDirect})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "reserved range")
}

func TestCheckUndecodableBody(t *testing.T) {
	srv := ipAPI(`<html>captive portal</html>`)
	defer srv.Close()

	res := New(Options{Endpoint: srv.URL}, nil).Check(context.Background(), "x", domain.ProxyTestConfig{Type: domain.ProxyDirect})
	assert.True(t, res.Success)
	assert.Equal(t, UnknownLocation, res.Location)
	assert.Empty(t, res.IP)
}

func TestCheckManyKeepsOrderAndSurvivesTimeouts(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	host, port := splitAddr(t, slow.Listener.Addr().String())

	fast := ipAPI(`{"status":"success","query":"9.9.9.9","country":"US","city":"NYC"}`)
	defer fast.Close()

	c := New(Options{Endpoint: fast.URL, Timeout: 200 * time.Millisecond, Concurrency: 2}, nil)
	results := c.CheckMany(context.Background(), []Target{
		{ID: "a", Config: domain.ProxyTestConfig{Type: domain.ProxyDirect}},
		{ID: "b", Config: domain.ProxyTestConfig{Type: domain.ProxyHTTP, Host: host, Port: port}},
		{ID: "c", Config: domain.ProxyTestConfig{Type: domain.ProxyDirect}},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ProxyID)
	assert.True(t, results[0].Success)
	assert.Equal(t, "b", results[1].ProxyID)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)
	assert.True(t, results[2].Success)
}
