package site

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"streamkeeper/internal/services"
)

// ErrUnsupportedSite is returned when an abbreviation has no registered adapter.
var ErrUnsupportedSite = fmt.Errorf("%w: unsupported site", services.ErrValidation)

// Site is the capability every streaming site back-end provides. Implementations
// must be safe for concurrent calls across usernames.
type Site interface {
	// IsLive reports whether the user is broadcasting right now.
	IsLive(ctx context.Context, username string) bool
	// MediaLocator returns the URL the capture tool should read from.
	MediaLocator(ctx context.Context, username string) (string, bool)
	Abbreviation() string
	Name() string
	ThumbnailURL(username string) string
	ProfileURL(username string) string
}

// NormalizeAbbreviation trims and upper-cases a site abbreviation.
func NormalizeAbbreviation(abbrev string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(abbrev))
}

// Registry maps abbreviations to site adapters.
type Registry struct {
	mu    sync.RWMutex
	sites map[string]Site
	order []string
}

// NewRegistry returns a registry seeded with the provided adapters.
func NewRegistry(sites ...Site) *Registry {
	r := &Registry{sites: make(map[string]Site)}
	for _, s := range sites {
		r.Register(s)
	}
	return r
}

// Register adds or replaces the adapter for its abbreviation.
func (r *Registry) Register(s Site) {
	if s == nil {
		return
	}
	key := NormalizeAbbreviation(s.Abbreviation())
	if key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sites[key]; !exists {
		r.order = append(r.order, key)
	}
	r.sites[key] = s
}

// Lookup resolves an abbreviation. An empty abbreviation selects the default site.
func (r *Registry) Lookup(abbrev string) (Site, error) {
	key := NormalizeAbbreviation(abbrev)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if key == "" {
		if len(r.order) == 0 {
			return nil, fmt.Errorf("%w: no sites registered", ErrUnsupportedSite)
		}
		return r.sites[r.order[0]], nil
	}
	if s, ok := r.sites[key]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w %q (available: %s)", ErrUnsupportedSite, abbrev, strings.Join(r.order, ", "))
}

// Abbreviations lists registered abbreviations in registration order.
func (r *Registry) Abbreviations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Default returns the first registered adapter, or nil when empty.
func (r *Registry) Default() Site {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil
	}
	return r.sites[r.order[0]]
}
