package testsupport

import (
	"testing"

	"streamkeeper/internal/config"
	"streamkeeper/internal/watchlist"
)

// MustOpenWatchlist opens a watchlist.Store for tests and registers cleanup.
func MustOpenWatchlist(t testing.TB, cfg *config.Config) *watchlist.Store {
	t.Helper()

	store, err := watchlist.Open(cfg)
	if err != nil {
		t.Fatalf("watchlist.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
