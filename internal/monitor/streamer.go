package monitor

import (
	"context"
	"sync"
	"time"

	"streamkeeper/internal/site"
)

// streamer is the runtime record for one (username, site) pair. username,
// site and key never change after creation.
type streamer struct {
	key      string
	username string
	site     site.Site
	siteTag  string

	mu             sync.Mutex
	monitoring     bool
	everStarted    bool
	stopRequested  bool
	online         bool
	recording      bool
	lastCheck      time.Time
	checkCount     int
	capture        Capture
	recordingSince time.Time
	cancel         context.CancelFunc
	done           chan struct{}
}

func streamerKey(username, siteTag string) string {
	return username + "@" + siteTag
}

func (s *streamer) matches(username, siteTag string) bool {
	if username != "*" && s.username != username {
		return false
	}
	return siteTag == "" || s.siteTag == siteTag
}

// setRecording records a started capture. All three fields change together.
func (s *streamer) setRecording(c Capture, since time.Time) {
	s.mu.Lock()
	s.recording = true
	s.capture = c
	s.recordingSince = since
	s.mu.Unlock()
}

func (s *streamer) clearRecording() {
	s.mu.Lock()
	s.recording = false
	s.capture = nil
	s.recordingSince = time.Time{}
	s.mu.Unlock()
}

// stopHandle marks the streamer as stopping and returns what the caller needs
// to cancel and await it. Callers hold Monitor.mu.
func (s *streamer) stopHandle() (context.CancelFunc, chan struct{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.monitoring {
		return nil, nil, false
	}
	first := !s.stopRequested
	s.stopRequested = true
	return s.cancel, s.done, first
}
