package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"streamkeeper/internal/testsupport"
)

func countingSnapshotScript(counter string) string {
	return fmt.Sprintf(`for last; do :; done
echo run >> %q
printf 'jpeg' > "$last"
exit 0
`, counter)
}

func readCount(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return strings.Count(string(data), "run")
}

func TestCaptureSnapshotThrottlesFreshImages(t *testing.T) {
	counter := filepath.Join(t.TempDir(), "count")
	sup, base := newTestSupervisor(t, countingSnapshotScript(counter))

	if !sup.CaptureSnapshot(context.Background(), "u", "alice") {
		t.Fatal("expected first snapshot to succeed")
	}
	if !sup.CaptureSnapshot(context.Background(), "u", "alice") {
		t.Fatal("expected fresh snapshot to count as success")
	}
	if got := readCount(t, counter); got != 1 {
		t.Fatalf("expected one ffmpeg invocation, got %d", got)
	}

	target := filepath.Join(base, "static", "users", "alice.jpg")
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(target, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if !sup.CaptureSnapshot(context.Background(), "u", "alice") {
		t.Fatal("expected refresh to succeed")
	}
	if got := readCount(t, counter); got != 2 {
		t.Fatalf("expected stale image to be refreshed, got %d runs", got)
	}
}

func TestCaptureSnapshotSerializesPerUser(t *testing.T) {
	counter := filepath.Join(t.TempDir(), "count")
	sup, _ := newTestSupervisor(t, countingSnapshotScript(counter))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sup.CaptureSnapshot(context.Background(), "u", "bob")
		}()
	}
	wg.Wait()
	if got := readCount(t, counter); got != 1 {
		t.Fatalf("expected concurrent requests to share one capture, got %d", got)
	}
}

func TestCaptureSnapshotFailureReturnsFalse(t *testing.T) {
	sup, base := newTestSupervisor(t, testsupport.FailingScript)
	if sup.CaptureSnapshot(context.Background(), "u", "carol") {
		t.Fatal("expected failure")
	}
	if _, err := os.Stat(filepath.Join(base, "static", "users", "carol.jpg")); !os.IsNotExist(err) {
		t.Fatalf("expected no snapshot file, stat err=%v", err)
	}
}

func TestCaptureSnapshotFailedRunKeepsPreviousImage(t *testing.T) {
	counter := filepath.Join(t.TempDir(), "count")
	script := fmt.Sprintf(`for last; do :; done
echo run >> %q
printf 'partial' > "$last"
exit 1
`, counter)
	sup, base := newTestSupervisor(t, script)
	target := filepath.Join(base, "static", "users", "erin.jpg")

	if sup.CaptureSnapshot(context.Background(), "u", "erin") {
		t.Fatal("expected failed run to report false")
	}
	if sup.CaptureSnapshot(context.Background(), "u", "erin") {
		t.Fatal("expected retry to run ffmpeg and fail again")
	}
	if got := readCount(t, counter); got != 2 {
		t.Fatalf("expected every attempt to run ffmpeg, got %d runs", got)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("expected no preview from a failed run, stat err=%v", err)
	}
	if _, err := os.Stat(target + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected partial image removed, stat err=%v", err)
	}

	if err := os.WriteFile(target, []byte("good"), 0o644); err != nil {
		t.Fatalf("seed preview: %v", err)
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(target, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if sup.CaptureSnapshot(context.Background(), "u", "erin") {
		t.Fatal("expected refresh failure")
	}
	if data, _ := os.ReadFile(target); string(data) != "good" {
		t.Fatalf("previous preview overwritten: %q", data)
	}
}

func TestCaptureSnapshotTimeout(t *testing.T) {
	sup, _ := newTestSupervisor(t, testsupport.StubbornScript)
	sup.opts.SnapshotTimeout = 200 * time.Millisecond

	started := time.Now()
	if sup.CaptureSnapshot(context.Background(), "u", "dave") {
		t.Fatal("expected timeout to report failure")
	}
	if elapsed := time.Since(started); elapsed > 3*time.Second {
		t.Fatalf("snapshot timeout not enforced: %v", elapsed)
	}
}

func TestKeyedMutexDropsIdleEntries(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.lock("a")
	unlock()
	if len(k.locks) != 0 {
		t.Fatalf("expected idle entry removed, have %d", len(k.locks))
	}
}
