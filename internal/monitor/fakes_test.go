package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"streamkeeper/internal/logging"
	"streamkeeper/internal/site"
)

type fakeSite struct {
	abbrev  string
	locator string

	mu     sync.Mutex
	live   map[string]bool
	panics map[string]bool
	checks map[string]int
}

func newFakeSite(abbrev string) *fakeSite {
	return &fakeSite{
		abbrev:  abbrev,
		locator: "https://x/live.m3u8",
		live:    make(map[string]bool),
		panics:  make(map[string]bool),
		checks:  make(map[string]int),
	}
}

func (f *fakeSite) setLive(username string, live bool) {
	f.mu.Lock()
	f.live[username] = live
	f.mu.Unlock()
}

func (f *fakeSite) setPanic(username string, panics bool) {
	f.mu.Lock()
	f.panics[username] = panics
	f.mu.Unlock()
}

func (f *fakeSite) checkCount(username string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks[username]
}

func (f *fakeSite) IsLive(_ context.Context, username string) bool {
	f.mu.Lock()
	f.checks[username]++
	live := f.live[username]
	panics := f.panics[username]
	f.mu.Unlock()
	if panics {
		panic("adapter exploded")
	}
	return live
}

func (f *fakeSite) MediaLocator(_ context.Context, username string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.live[username] {
		return "", false
	}
	return f.locator, true
}

func (f *fakeSite) Abbreviation() string { return f.abbrev }

func (f *fakeSite) Name() string { return "Fake" }

func (f *fakeSite) ThumbnailURL(username string) string { return "https://thumbs/" + username + ".jpg" }

func (f *fakeSite) ProfileURL(username string) string { return "https://site/" + username + "/" }

type fakeCapture struct {
	output string
	alive  atomic.Bool
}

func (c *fakeCapture) Alive() bool { return c.alive.Load() }

func (c *fakeCapture) OutputPath() string { return c.output }

type fakeRecorder struct {
	mu        sync.Mutex
	locators  []string
	stops     int
	active    int
	maxActive int
	failStart bool
	captures  []*fakeCapture
	// stopGate, when set, holds StopCapture until it is closed.
	stopGate chan struct{}
}

func (r *fakeRecorder) StartCapture(_ context.Context, locator, username, siteTag string) (Capture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locators = append(r.locators, locator)
	if r.failStart {
		return nil, errors.New("ffmpeg exited")
	}
	c := &fakeCapture{output: "/recordings/" + username + "/" + siteTag + "_" + username + ".mp4"}
	c.alive.Store(true)
	r.captures = append(r.captures, c)
	r.active++
	if r.active > r.maxActive {
		r.maxActive = r.active
	}
	return c, nil
}

func (r *fakeRecorder) StopCapture(c Capture) bool {
	r.mu.Lock()
	gate := r.stopGate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	fc := c.(*fakeCapture)
	if !fc.alive.Swap(false) {
		return false
	}
	r.mu.Lock()
	r.stops++
	r.active--
	r.mu.Unlock()
	return true
}

// kill simulates ffmpeg exiting on its own.
func (r *fakeRecorder) kill(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.captures[i].alive.Swap(false) {
		r.active--
	}
}

func (r *fakeRecorder) snapshot() (starts, stops, maxActive int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locators), r.stops, r.maxActive
}

func newTestMonitor(t *testing.T, interval time.Duration) (*Monitor, *fakeSite, *fakeRecorder) {
	t.Helper()
	fs := newFakeSite("CB")
	rec := &fakeRecorder{}
	m := New(site.NewRegistry(fs), rec, Options{CheckInterval: interval, Logger: logging.NewNop()})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Shutdown(ctx); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})
	return m, fs, rec
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func mustLookup(t *testing.T, m *Monitor, username string) StreamerStatus {
	t.Helper()
	st, ok := m.Lookup(username, "CB")
	if !ok {
		t.Fatalf("streamer %s not found", username)
	}
	return st
}
