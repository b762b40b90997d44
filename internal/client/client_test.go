package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/wire"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, RetryDelay: time.Millisecond, Timeout: 5 * time.Second})
}

func TestInvokeRetriesIdempotentCommands(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"value":"1.2.3"}`)
	})

	version, err := c.KernelVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", version)
	assert.EqualValues(t, 3, calls.Load())
}

func TestInvokeGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.Invoke(context.Background(), "get_groups", nil, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	assert.EqualValues(t, defaultMaxAttempts, calls.Load())
}

func TestInvokeSendsNonIdempotentOnce(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.CreateProfile(context.Background(), domain.CreateProfileInput{Name: "a"})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())

	calls.Store(0)
	_, err = c.LaunchBrowser(context.Background(), "p1")
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestInvokeDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"service: profile not found / 窗口不存在"}`)
	})

	_, err := c.GetProfile(context.Background(), "missing")
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "get_profile", apiErr.Command)
	assert.Equal(t, "profile not found / 窗口不存在", apiErr.Message)
}

func TestInvokeWrapsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Options{BaseURL: url, RetryDelay: time.Millisecond, MaxAttempts: 2})
	err := c.Invoke(context.Background(), "get_tags", nil, nil)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, StatusCode(err))
}

func TestInvokeRequestShape(t *testing.T) {
	var (
		path   string
		auth   string
		body   string
		method string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		fmt.Fprint(w, `{"results":[{"profile_id":"a","ok":true},{"profile_id":"b","ok":false,"error":"boom"}],"total":9,"success_count":9,"failure_count":0}`)
	})
	c.SetToken("tok")

	res, err := c.BatchMoveToGroup(context.Background(), []string{"a", "b"}, "g1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/api/v1/invoke/batch_move_to_group", path)
	assert.Equal(t, "Bearer tok", auth)
	assert.JSONEq(t, `{"ids":["a","b"],"group":"g1"}`, body)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, []string{"a"}, res.SucceededIDs())
}

func TestLoginStoresToken(t *testing.T) {
	var lastAuth atomic.Value
	lastAuth.Store("")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/invoke/auth_login":
			fmt.Fprint(w, `{"user":{"id":"u1","username":"alice"},"access_token":"acc","refresh_token":"ref"}`)
		default:
			fmt.Fprint(w, `{"value":true}`)
		}
	})

	session, err := c.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", session.User.Username)

	ok, err := c.CheckLogin(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Bearer acc", lastAuth.Load())

	require.NoError(t, c.Logout(context.Background()))
	_, err = c.CheckLogin(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lastAuth.Load())
}

func TestIdempotent(t *testing.T) {
	for command, want := range map[string]bool{
		"get_profiles":             true,
		"update_profile":           true,
		"restore_profile":          true,
		"test_proxy":               true,
		"create_profile":           false,
		"delete_group":             false,
		"batch_delete_profiles":    false,
		"batch_duplicate_profiles": false,
		"launch_browser":           false,
		"empty_recycle_bin":        false,
		"license_activate":         false,
	} {
		assert.Equal(t, want, Idempotent(command), command)
	}
}

func TestStripPrefixes(t *testing.T) {
	assert.Equal(t, "boom", stripPrefixes("Error: service: boom"))
	assert.Equal(t, "plain", stripPrefixes("plain"))
	assert.Equal(t, "502 Bad Gateway", decodeMessage(nil, "502 Bad Gateway"))
	assert.Equal(t, "text body", decodeMessage([]byte("error: text body\n"), "x"))
}

func TestLinearBackOff(t *testing.T) {
	b := &linearBackOff{step: 10 * time.Millisecond, attempts: 3}
	assert.Equal(t, 10*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 20*time.Millisecond, b.NextBackOff())
	assert.Less(t, b.NextBackOff(), time.Duration(0))
	b.Reset()
	assert.Equal(t, 10*time.Millisecond, b.NextBackOff())
}

func TestReadEvents(t *testing.T) {
	stream := strings.Join([]string{
		": connected",
		"",
		"id: 1",
		"event: profile:deleted",
		`data: {"name":"profile:deleted","payload":{"id":"p1"}}`,
		"",
		": ping",
		"",
		"data: not json",
		"",
		"id: 2",
		`data: {"name":"proxy:deleted",`,
		`data: "payload":{"id":"x1"}}`,
		"",
	}, "\n")

	var got []events.Event
	err := readEvents(strings.NewReader(stream), func(evt events.Event) { got = append(got, evt) })
	require.ErrorIs(t, err, ErrStreamClosed)
	require.Len(t, got, 2)
	assert.Equal(t, events.ProfileDeleted, got[0].Name)

	var payload events.IDPayload
	require.NoError(t, got[1].Decode(&payload))
	assert.Equal(t, "x1", payload.ID)
}

func TestStreamDeliversEvents(t *testing.T) {
	bus := events.NewBus(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ch, cancel := bus.Subscribe(8)
		defer cancel()
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		for {
			select {
			case <-r.Context().Done():
				return
			case evt := <-ch:
				raw, _ := evt.Payload.MarshalJSON()
				fmt.Fprintf(w, "data: {\"name\":%q,\"payload\":%s}\n\n", evt.Name, raw)
				w.(http.Flusher).Flush()
			}
		}
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan struct{})
	received := make(chan events.Event, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Stream(ctx, func() { close(ready) }, func(evt events.Event) {
			select {
			case received <- evt:
			default:
			}
		})
	}()

	<-ready
	require.Eventually(t, func() bool {
		bus.Emit(events.TagDeleted, events.IDPayload{ID: "t1"})
		select {
		case evt := <-received:
			return evt.Name == events.TagDeleted
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
}

func TestCommandsDecodeEntities(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/api/v1/invoke/") {
		case "get_proxies":
			fmt.Fprint(w, `[{"id":"x1","name":"hk","type":"http","host":"1.2.3.4","port":8080,"status":"active"}]`)
		case "empty_recycle_bin":
			fmt.Fprint(w, `{"count":4}`)
		case "is_kernel_installed":
			fmt.Fprint(w, `{"value":true}`)
		default:
			w.WriteHeader(http.StatusNotImplemented)
			fmt.Fprint(w, `{"error":"unsupported"}`)
		}
	})
	ctx := context.Background()

	proxies, err := c.GetProxies(ctx)
	require.NoError(t, err)
	require.Len(t, proxies, 1)
	assert.Equal(t, "hk", proxies[0].Name)
	assert.Equal(t, 8080, proxies[0].Port)

	n, err := c.EmptyRecycleBin(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	installed, err := c.IsKernelInstalled(ctx)
	require.NoError(t, err)
	assert.True(t, installed)

	_, err = c.GetProfiles(ctx, wire.ProfileQuery{})
	assert.Equal(t, http.StatusNotImplemented, StatusCode(err))
}
