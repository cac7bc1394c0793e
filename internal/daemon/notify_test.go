package daemon_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"streamkeeper/internal/api"
	"streamkeeper/internal/daemon"
	"streamkeeper/internal/logging"
	"streamkeeper/internal/site"
	"streamkeeper/internal/testsupport"
)

type ntfyRecorder struct {
	mu     sync.Mutex
	titles []string
}

func (n *ntfyRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	n.titles = append(n.titles, r.Header.Get("Title"))
	n.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (n *ntfyRecorder) saw(title string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Contains(n.titles, title)
}

func TestDaemonRecordsLiveStreamerAndNotifies(t *testing.T) {
	ntfy := &ntfyRecorder{}
	server := httptest.NewServer(ntfy)
	defer server.Close()

	cfg := testsupport.NewConfig(t,
		testsupport.WithFFmpegScript(testsupport.RecordingScript),
		testsupport.WithNtfyTopic(server.URL),
	)
	cb := testsupport.NewStaticSite("CB")
	d, err := daemon.New(cfg, testsupport.MustOpenWatchlist(t, cfg), logging.NewNop(), daemon.Options{Sites: site.NewRegistry(cb)})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cb.SetLive("alice", true)
	resp, err := d.Service().Add(ctx, api.ActionRequest{Username: "alice", Site: "CB"})
	if err != nil || !resp.Success {
		t.Fatalf("Add: %+v, %v", resp, err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for !ntfy.saw("Streamkeeper - Recording") || !ntfy.saw("Streamkeeper - Online") {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for online and recording notifications")
		}
		time.Sleep(20 * time.Millisecond)
	}

	entries, err := os.ReadDir(filepath.Join(cfg.Paths.RecordingsDir, "alice"))
	if err != nil || len(entries) == 0 {
		t.Fatalf("expected a capture file for alice: %v", err)
	}
}
