package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteFile creates path with size filler bytes (at least one).
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x47}, int(max(size, 1))), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteRecording places a capture file the way the supervisor names them:
// dir/<username>/<SITE>_<username>_<yyyyMMdd>_<HHmmss>.mp4. It returns the path.
func WriteRecording(t testing.TB, dir, username, siteTag string, at time.Time, size int64) string {
	t.Helper()
	name := siteTag + "_" + username + "_" + at.Format("20060102_150405") + ".mp4"
	path := filepath.Join(dir, username, name)
	WriteFile(t, path, size)
	return path
}
