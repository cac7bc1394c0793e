package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"streamkeeper/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantRecordings := filepath.Join(tempHome, "streamkeeper", "recordings")
	if cfg.Paths.RecordingsDir != wantRecordings {
		t.Fatalf("unexpected recordings dir: got %q want %q", cfg.Paths.RecordingsDir, wantRecordings)
	}
	if cfg.Paths.SnapshotDir != filepath.Join(tempHome, "streamkeeper", "static", "users") {
		t.Fatalf("unexpected snapshot dir: %q", cfg.Paths.SnapshotDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.CheckInterval() != time.Minute {
		t.Fatalf("unexpected check interval: %s", cfg.CheckInterval())
	}
	if cfg.StopTimeout() != 10*time.Second || cfg.SnapshotTimeout() != 10*time.Second {
		t.Fatalf("unexpected capture timeouts: stop=%s snapshot=%s", cfg.StopTimeout(), cfg.SnapshotTimeout())
	}
	if cfg.SnapshotMaxAge() != time.Hour {
		t.Fatalf("unexpected snapshot max age: %s", cfg.SnapshotMaxAge())
	}
	if cfg.Capture.SnapshotWidth != 400 {
		t.Fatalf("unexpected snapshot width: %d", cfg.Capture.SnapshotWidth)
	}
	if !cfg.Monitor.AutoStart || !cfg.Monitor.StartOnAdd {
		t.Fatal("expected auto start and start on add enabled by default")
	}
	if cfg.Sites.Chaturbate.BaseURL != "https://chaturbate.com" {
		t.Fatalf("unexpected chaturbate base url: %q", cfg.Sites.Chaturbate.BaseURL)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.RecordingsDir, cfg.Paths.SnapshotDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if filepath.Dir(cfg.DatabasePath()) != cfg.Paths.StateDir {
		t.Fatalf("database path %q not under state dir", cfg.DatabasePath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "streamkeeper.toml")

	type payload struct {
		Paths struct {
			RecordingsDir string `toml:"recordings_dir"`
		} `toml:"paths"`
		Monitor struct {
			CheckInterval int `toml:"check_interval"`
		} `toml:"monitor"`
		Capture struct {
			Extension string `toml:"extension"`
		} `toml:"capture"`
	}
	custom := payload{}
	custom.Paths.RecordingsDir = filepath.Join(tempDir, "captures")
	custom.Monitor.CheckInterval = 15
	custom.Capture.Extension = ".MKV"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.RecordingsDir != filepath.Join(tempDir, "captures") {
		t.Fatalf("unexpected recordings dir: %q", cfg.Paths.RecordingsDir)
	}
	if cfg.CheckInterval() != 15*time.Second {
		t.Fatalf("unexpected check interval: %s", cfg.CheckInterval())
	}
	if cfg.Capture.Extension != "mkv" {
		t.Fatalf("expected extension normalized to mkv, got %q", cfg.Capture.Extension)
	}
}

func TestLoadRejectsNegativeInterval(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "streamkeeper.toml")
	if err := os.WriteFile(configPath, []byte("[monitor]\ncheck_interval = -5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "monitor.check_interval must be positive") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "streamkeeper.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected validation error for unknown level")
	}
}

func TestLoadRejectsRelativeNtfyTopic(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "streamkeeper.toml")
	if err := os.WriteFile(configPath, []byte("[notifications]\nntfy_topic = \"my-topic\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "notifications.ntfy_topic") {
		t.Fatalf("expected ntfy_topic validation error, got %v", err)
	}
}

func TestNotificationDefaultsEnableAllEvents(t *testing.T) {
	cfg := config.Default()
	n := cfg.Notifications
	if n.NtfyTopic != "" || n.RequestTimeout != 10 {
		t.Fatalf("unexpected notification defaults: %+v", n)
	}
	if !n.StreamOnline || !n.RecordingStarted || !n.RecordingFinished || !n.Errors {
		t.Fatalf("expected every event enabled by default: %+v", n)
	}
}

func TestAPITokenFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("STREAMKEEPER_API_TOKEN", "  secret  ")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIToken != "secret" {
		t.Fatalf("expected token from env, got %q", cfg.Paths.APIToken)
	}
}

func TestDotEnvFeedsFallbacks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	workDir := t.TempDir()
	t.Chdir(workDir)
	t.Setenv("STREAMKEEPER_USER_AGENT", "")
	os.Unsetenv("STREAMKEEPER_USER_AGENT")
	if err := os.WriteFile(filepath.Join(workDir, ".env"), []byte("STREAMKEEPER_USER_AGENT=dotenv-agent\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Sites.Chaturbate.UserAgent != "dotenv-agent" {
		t.Fatalf("expected user agent from .env, got %q", cfg.Sites.Chaturbate.UserAgent)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Capture.FFmpegBinary != "ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary: %q", cfg.Capture.FFmpegBinary)
	}
}

func TestEncodeRoundTripsSections(t *testing.T) {
	cfg := config.Default()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, section := range []string{"[paths]", "[monitor]", "[capture]", "[sites.chaturbate]", "[logging]"} {
		if !strings.Contains(string(data), section) {
			t.Fatalf("expected %s in encoded config:\n%s", section, data)
		}
	}
}
