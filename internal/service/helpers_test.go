package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/fpbrowser/internal/bootstrap"
	"github.com/creamcroissant/fpbrowser/internal/browser"
	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/repository/sqlite"
)

func newStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := bootstrap.OpenMigratedSQLite(filepath.Join(t.TempDir(), "fp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlite.NewStore(db)
}

type recordedEvent struct {
	Name    events.Name
	Payload any
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Emit(name events.Name, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Name: name, Payload: payload})
}

func (r *recorder) names() []events.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Name, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

func (r *recorder) statuses(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if p, ok := e.Payload.(events.StatusChangedPayload); ok && p.ProfileID == id {
			out = append(out, p.Status)
		}
	}
	return out
}

type fakeLauncher struct {
	mu        sync.Mutex
	running   map[string]bool
	launchErr error
	launches  int
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{running: make(map[string]bool)}
}

func (f *fakeLauncher) Launch(_ context.Context, p domain.Profile, progress browser.ProgressFunc) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launches++
	for _, step := range events.LaunchSteps {
		if step == events.StepLaunching && f.launchErr != nil {
			return 0, f.launchErr
		}
		progress(step, "")
	}
	f.running[p.ID] = true
	return 4242, nil
}

func (f *fakeLauncher) Stop(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running[id] {
		return browser.ErrNotRunning
	}
	delete(f.running, id)
	return nil
}

func (f *fakeLauncher) Alive(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running[id]
}

func (f *fakeLauncher) Running() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.running))
	for id := range f.running {
		out = append(out, id)
	}
	return out
}

func (f *fakeLauncher) crash(id string) {
	f.mu.Lock()
	delete(f.running, id)
	f.mu.Unlock()
}

var errBoom = errors.New("boom")
