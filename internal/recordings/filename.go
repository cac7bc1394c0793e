package recordings

import (
	"path/filepath"
	"strings"
	"time"

	"streamkeeper/internal/capture"
)

// DateLayout is the display format for recording timestamps.
const DateLayout = "02.01.2006 15:04"

// ParsedName is the information carried by a recording file name.
type ParsedName struct {
	Site       string
	Username   string
	RecordedAt time.Time
}

// ParseFilename splits {SITE}_{username}_{yyyyMMdd}_{HHmmss}.ext. Usernames
// may themselves contain underscores, so the site is the first segment and
// the timestamp the last two. ok is false when the name does not follow the
// layout; the returned value then carries whatever could be recovered.
func ParseFilename(name string) (ParsedName, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) < 4 {
		parsed := ParsedName{Username: "unknown"}
		if len(parts) > 1 {
			parsed.Site = parts[0]
			parsed.Username = parts[1]
		}
		return parsed, false
	}

	parsed := ParsedName{
		Site:     parts[0],
		Username: strings.Join(parts[1:len(parts)-2], "_"),
	}
	stamp := parts[len(parts)-2] + "_" + parts[len(parts)-1]
	at, err := time.ParseInLocation(capture.FileTimeLayout, stamp, time.Local)
	if err != nil {
		return parsed, false
	}
	parsed.RecordedAt = at
	return parsed, true
}
