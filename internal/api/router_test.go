package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/api"
	"github.com/creamcroissant/fpbrowser/internal/bootstrap"
	"github.com/creamcroissant/fpbrowser/internal/config"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/metrics"
	"github.com/creamcroissant/fpbrowser/internal/repository/sqlite"
	"github.com/creamcroissant/fpbrowser/internal/service"
	"github.com/creamcroissant/fpbrowser/internal/wire"
)

type testEnv struct {
	handler  http.Handler
	bus      *events.Bus
	recorder *metrics.Recorder
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := bootstrap.OpenMigratedSQLite(filepath.Join(t.TempDir(), "fp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := sqlite.NewStore(db)

	bus := events.NewBus(nil)
	recorder := metrics.New("", nil)
	services := api.Services{
		Profiles:   service.NewProfileService(store, nil, bus, nil),
		RecycleBin: service.NewRecycleBinService(store, t.TempDir(), bus, recorder, nil),
		Groups:     service.NewGroupService(store, nil, nil),
		Tags:       service.NewTagService(store, nil, bus, nil),
		Extensions: service.NewExtensionService(store, nil),
		License:    service.NewLicenseService(store, nil),
	}
	handler := api.NewRouter(nil, services, api.Options{
		Bus:      bus,
		Recorder: recorder,
		Metrics:  config.MetricsConfig{Enabled: true},
	})
	return &testEnv{handler: handler, bus: bus, recorder: recorder}
}

func (e *testEnv) invoke(t *testing.T, command string, params any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader = http.NoBody
	if params != nil {
		raw, err := json.Marshal(params)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoke/"+command, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestProfileRoundTripThroughRecycleBin(t *testing.T) {
	env := newEnv(t)

	rec := env.invoke(t, "create_profile", wire.CreateProfileRequest{
		Name:        "shop-01",
		Fingerprint: map[string]any{"platform": "macos", "hardware_concurrency": 4},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[wire.ProfileDTO](t, rec)
	assert.Equal(t, "stopped", created.Status)
	assert.Equal(t, "default", created.Group)

	rec = env.invoke(t, "get_profiles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]wire.ProfileDTO](t, rec), 1)

	rec = env.invoke(t, "delete_profile", wire.IDRequest{ID: created.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.invoke(t, "get_recycle_bin", nil)
	binned := decode[[]wire.RecycledProfileDTO](t, rec)
	require.Len(t, binned, 1)
	assert.NotEmpty(t, binned[0].DeletedAt)

	rec = env.invoke(t, "restore_profile", wire.IDRequest{ID: created.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.invoke(t, "get_profile", wire.IDRequest{ID: created.ID})
	restored := decode[wire.ProfileDTO](t, rec)
	assert.Equal(t, created.Fingerprint, restored.Fingerprint)
}

func TestStatusFilterRejectsUnknownStatus(t *testing.T) {
	env := newEnv(t)
	rec := env.invoke(t, "get_profiles", wire.ProfileQuery{Status: []string{"sleeping"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	env := newEnv(t)

	cases := []struct {
		name    string
		command string
		params  any
		status  int
	}{
		{"unknown command", "format_disk", nil, http.StatusNotFound},
		{"missing profile", "get_profile", wire.IDRequest{ID: "nope"}, http.StatusNotFound},
		{"default group", "delete_group", wire.IDRequest{ID: "default"}, http.StatusConflict},
		{"unsupported", "arrange_windows_grid", nil, http.StatusNotImplemented},
		{"empty name", "create_profile", wire.CreateProfileRequest{Name: "  "}, http.StatusBadRequest},
		{"blacklisted field", "create_profile", wire.CreateProfileRequest{
			Name:        "x",
			Fingerprint: map[string]any{"launch_args": "--remote-debugging-port=9222"},
		}, http.StatusBadRequest},
		{"invalid license", "license_activate", wire.LicenseRequest{Key: "AAAA"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.invoke(t, tc.command, tc.params)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			body := decode[api.ErrorBody](t, rec)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestMalformedParams(t *testing.T) {
	env := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoke/get_profile", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchMoveReportsPartialFailure(t *testing.T) {
	env := newEnv(t)
	created := decode[wire.ProfileDTO](t, env.invoke(t, "create_profile", wire.CreateProfileRequest{Name: "a"}))
	group := decode[wire.GroupDTO](t, env.invoke(t, "create_group", wire.CreateGroupRequest{Name: "team"}))

	rec := env.invoke(t, "batch_move_to_group", wire.MoveToGroupRequest{IDs: []string{created.ID, "ghost"}, Group: group.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[wire.BatchResultDTO](t, rec)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
}

func TestEveryIPCCommandIsRegistered(t *testing.T) {
	env := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/commands", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	names := decode[[]string](t, rec)

	for _, name := range []string{
		"get_profiles", "create_profile", "batch_duplicate_profiles", "arrange_windows_grid",
		"get_groups", "delete_group", "set_profile_tags", "get_recycle_bin", "empty_recycle_bin",
		"license_validate", "get_extensions", "download_kernel", "install_app_update",
	} {
		assert.Contains(t, names, name)
	}
}

func TestEventStreamDeliversBusEvents(t *testing.T) {
	env := newEnv(t)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return env.bus.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	env.bus.Emit(events.ProfileStatusChanged, events.StatusChangedPayload{ProfileID: "p1", Status: "running"})

	reader := bufio.NewReader(resp.Body)
	var eventLine, dataLine string
	for dataLine == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	assert.Equal(t, string(events.ProfileStatusChanged), eventLine)

	var evt events.Event
	require.NoError(t, json.Unmarshal([]byte(dataLine), &evt))
	var payload events.StatusChangedPayload
	require.NoError(t, evt.Decode(&payload))
	assert.Equal(t, "running", payload.Status)
}

func TestMetricsExposeCommandCounters(t *testing.T) {
	env := newEnv(t)
	env.invoke(t, "get_groups", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `fpbrowser_ipc_commands_total{command="get_groups"`)
	assert.Contains(t, body, `fpbrowser_http_requests_total{method="POST",route="/api/v1/invoke/{command}"`)
}
