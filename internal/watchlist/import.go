package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"streamkeeper/internal/services"
)

const legacyDefaultSite = "CB"

type legacyFile struct {
	Streamers []struct {
		Username string `json:"username"`
		Site     string `json:"site"`
	} `json:"streamers"`
}

// ReadLegacyJSON parses a legacy {"streamers":[...]} watchlist file.
// Usernames are lowercased, sites uppercased and defaulted to CB, and blank
// usernames dropped.
func ReadLegacyJSON(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "watchlist", "import", "read legacy file", err)
	}
	var legacy legacyFile
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, services.Wrap(services.ErrValidation, "watchlist", "import", "decode legacy file", err)
	}
	entries := make([]Entry, 0, len(legacy.Streamers))
	for _, item := range legacy.Streamers {
		username := strings.ToLower(strings.TrimSpace(item.Username))
		if username == "" {
			continue
		}
		site := strings.ToUpper(strings.TrimSpace(item.Site))
		if site == "" {
			site = legacyDefaultSite
		}
		entries = append(entries, Entry{Username: username, Site: site})
	}
	return entries, nil
}

// ImportJSON loads a legacy JSON watchlist into the store. Pairs already
// present are skipped. It returns how many pairs were added.
func (s *Store) ImportJSON(ctx context.Context, path string) (int, error) {
	entries, err := ReadLegacyJSON(path)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, entry := range entries {
		ok, err := s.Add(ctx, entry.Username, entry.Site)
		if err != nil {
			return added, fmt.Errorf("import %s@%s: %w", entry.Username, entry.Site, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}
