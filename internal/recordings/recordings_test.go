package recordings_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"streamkeeper/internal/recordings"
	"streamkeeper/internal/services"
	"streamkeeper/internal/testsupport"
)

func TestParseFilenameKeepsUnderscoredUsernames(t *testing.T) {
	parsed, ok := recordings.ParseFilename("CB_lili_and_niki_20251017_180452.mp4")
	if !ok {
		t.Fatal("expected name to parse")
	}
	if parsed.Site != "CB" || parsed.Username != "lili_and_niki" {
		t.Fatalf("unexpected parse: %+v", parsed)
	}
	want := time.Date(2025, 10, 17, 18, 4, 52, 0, time.Local)
	if !parsed.RecordedAt.Equal(want) {
		t.Fatalf("recorded at = %v, want %v", parsed.RecordedAt, want)
	}
}

func TestParseFilenameRejectsShortNames(t *testing.T) {
	parsed, ok := recordings.ParseFilename("clip.mp4")
	if ok {
		t.Fatal("expected short name to fail")
	}
	if parsed.Username != "unknown" {
		t.Fatalf("username = %q", parsed.Username)
	}
	if _, ok := recordings.ParseFilename("CB_alice_notadate_nope.mp4"); ok {
		t.Fatal("expected bad timestamp to fail")
	}
}

func TestListSortsBySizeDescending(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "alice", "CB_alice_20240101_100000.mp4"), 10)
	testsupport.WriteFile(t, filepath.Join(root, "bob_x", "CB_bob_x_20240102_110000.mp4"), 300)
	testsupport.WriteFile(t, filepath.Join(root, "alice", "CB_alice_20240103_120000.mp4"), 50)
	testsupport.WriteFile(t, filepath.Join(root, "alice", "notes.txt"), 999)

	lib := recordings.NewLibrary(root, "mp4", "ffprobe", nil)
	items, err := lib.List(context.Background(), recordings.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 recordings, got %d", len(items))
	}
	if items[0].Path != "bob_x/CB_bob_x_20240102_110000.mp4" {
		t.Fatalf("largest first, got %q", items[0].Path)
	}
	if items[0].Username != "bob_x" || items[0].Site != "CB" {
		t.Fatalf("unexpected metadata: %+v", items[0])
	}
	if items[0].DateText() != "02.01.2024 11:00" {
		t.Fatalf("date text = %q", items[0].DateText())
	}
	if items[0].SizeText() != "300 B" {
		t.Fatalf("size text = %q", items[0].SizeText())
	}
	if items[2].SizeBytes != 10 {
		t.Fatalf("smallest last, got %d", items[2].SizeBytes)
	}

	count, err := lib.Count()
	if err != nil || count != 3 {
		t.Fatalf("Count = %d, %v", count, err)
	}
}

func TestListMissingRootIsEmpty(t *testing.T) {
	lib := recordings.NewLibrary(filepath.Join(t.TempDir(), "absent"), "mp4", "", nil)
	items, err := lib.List(context.Background(), recordings.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestResolveConfinesPaths(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "alice", "CB_alice_20240101_100000.mp4"), 4)
	lib := recordings.NewLibrary(root, "mp4", "", nil)

	full, err := lib.Resolve("alice/CB_alice_20240101_100000.mp4")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if full != filepath.Join(root, "alice", "CB_alice_20240101_100000.mp4") {
		t.Fatalf("resolved %q", full)
	}

	for _, bad := range []string{"../secret.mp4", "alice/../../x.mp4", "/etc/passwd", "", ".", "alice"} {
		if _, err := lib.Resolve(bad); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("Resolve(%q) = %v, want validation error", bad, err)
		}
	}
	if _, err := lib.Resolve("alice/missing.mp4"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteRemovesFileAndEmptyDir(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "alice", "CB_alice_20240101_100000.mp4"), 4)
	lib := recordings.NewLibrary(root, "mp4", "", nil)

	if err := lib.Delete("alice/CB_alice_20240101_100000.mp4"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "alice")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected empty user dir removed, stat err=%v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("root must survive: %v", err)
	}
	if err := lib.Delete("alice/CB_alice_20240101_100000.mp4"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("second delete = %v, want not found", err)
	}
}

func TestListWithProbe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub")
	}
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "alice", "CB_alice_20240101_100000.mp4"), 4)
	probe := filepath.Join(t.TempDir(), "ffprobe")
	script := "#!/bin/sh\necho '{\"streams\":[{\"codec_type\":\"video\",\"width\":640,\"height\":360}],\"format\":{\"duration\":\"90.0\"}}'\n"
	if err := os.WriteFile(probe, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	lib := recordings.NewLibrary(root, "mp4", probe, nil)
	items, err := lib.List(context.Background(), recordings.ListOptions{Probe: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if items[0].Duration != 90*time.Second || items[0].Resolution != "640x360" {
		t.Fatalf("probe fields not populated: %+v", items[0])
	}
}
