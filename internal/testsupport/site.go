package testsupport

import (
	"context"
	"sync"
)

// StaticSite is a site adapter whose live state is controlled by the test.
// Everyone is offline until SetLive says otherwise.
type StaticSite struct {
	abbrev  string
	locator string

	mu   sync.Mutex
	live map[string]bool
}

// NewStaticSite returns an adapter registered under abbrev.
func NewStaticSite(abbrev string) *StaticSite {
	return &StaticSite{abbrev: abbrev, locator: "https://media.test/live.m3u8", live: make(map[string]bool)}
}

// SetLive flips the broadcast state reported for username.
func (s *StaticSite) SetLive(username string, live bool) {
	s.mu.Lock()
	s.live[username] = live
	s.mu.Unlock()
}

func (s *StaticSite) IsLive(_ context.Context, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live[username]
}

func (s *StaticSite) MediaLocator(ctx context.Context, username string) (string, bool) {
	if !s.IsLive(ctx, username) {
		return "", false
	}
	return s.locator, true
}

func (s *StaticSite) Abbreviation() string { return s.abbrev }

func (s *StaticSite) Name() string { return "Static " + s.abbrev }

func (s *StaticSite) ThumbnailURL(username string) string {
	return "https://thumbs.test/" + username + ".jpg"
}

func (s *StaticSite) ProfileURL(username string) string {
	return "https://site.test/" + username + "/"
}
