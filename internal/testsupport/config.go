package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"streamkeeper/internal/config"
)

// ConfigOption customizes the configuration built by NewConfig.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig returns a config rooted in a fresh temp directory: recordings,
// snapshots, state and logs each get their own subdirectory, the API binds
// an ephemeral port and the poll interval is one second.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.RecordingsDir = filepath.Join(base, "recordings")
	cfg.Paths.SnapshotDir = filepath.Join(base, "static", "users")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Monitor.CheckInterval = 1
	cfg.Capture.StartGrace = 1
	cfg.Notifications.NtfyTopic = ""

	b := &configBuilder{t: t, baseDir: base, cfg: &cfg}
	for _, opt := range opts {
		opt(b)
	}
	return b.cfg
}

// BaseDir returns the temp directory behind a NewConfig result.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.RecordingsDir)
}

// WithAPIToken sets the bearer token guarding the dashboard API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithNtfyTopic points notifications at topic, usually an httptest server URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithFFmpegScript installs a fake ffmpeg built from script and points the
// capture configuration at it.
func WithFFmpegScript(script string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Capture.FFmpegBinary = WriteStubFFmpeg(b.t, filepath.Join(b.baseDir, "bin"), script)
	}
}

// WithStubbedBinaries puts stub executables first on PATH. Each stub answers
// -version with "<name> version stub" and otherwise exits 0. Without names,
// ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			script := fmt.Sprintf("#!/bin/sh\ncase \" $* \" in\n  *\" -version \"*) echo \"%s version stub\" ;;\nesac\nexit 0\n", name)
			if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
