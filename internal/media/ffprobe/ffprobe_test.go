package ffprobe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"streamkeeper/internal/services"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1280, "height": 720, "duration": "61.5"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "duration": "61.4"}
  ],
  "format": {"filename": "CB_alice_20240101_120000.mp4", "nb_streams": 2, "duration": "61.520000", "bit_rate": "2500000"}
}`

func TestParseHelpers(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := result.DurationSeconds(); got != 61.52 {
		t.Fatalf("duration = %v", got)
	}
	if got := result.Resolution(); got != "1280x720" {
		t.Fatalf("resolution = %q", got)
	}
	if got := result.BitRate(); got != 2500000 {
		t.Fatalf("bitrate = %d", got)
	}
	if got := result.Duration().Round(time.Millisecond); got != 61520*time.Millisecond {
		t.Fatalf("Duration() = %v", got)
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", Duration: "12.0"}, {CodecType: "video", Duration: "14.5"}},
		Format:  Format{Duration: "N/A"},
	}
	if got := result.DurationSeconds(); got != 14.5 {
		t.Fatalf("duration = %v, want 14.5", got)
	}
}

func TestInvalidNumbersReadAsZero(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", BitRate: "-1"}}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected 0 duration, got %v", result.DurationSeconds())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected 0 bitrate, got %d", result.BitRate())
	}
	if result.Resolution() != "" {
		t.Fatalf("expected empty resolution")
	}
}

func TestInspectRunsBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\ncat <<'JSON'\n" + sampleJSON + "\nJSON\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	result, err := Inspect(context.Background(), bin, filepath.Join(dir, "x.mp4"))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.Format.NBStreams != 2 {
		t.Fatalf("nb_streams = %d", result.Format.NBStreams)
	}
}

func TestInspectFailureIsExternalTool(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\necho 'moov atom not found' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	_, err := Inspect(context.Background(), bin, filepath.Join(dir, "x.mp4"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
