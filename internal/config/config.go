package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	RecordingsDir string `toml:"recordings_dir"`
	SnapshotDir   string `toml:"snapshot_dir"`
	StateDir      string `toml:"state_dir"`
	LogDir        string `toml:"log_dir"`
	APIBind       string `toml:"api_bind"`
	APIToken      string `toml:"api_token"`
}

// Monitor contains polling behaviour for watched streamers.
type Monitor struct {
	CheckInterval int  `toml:"check_interval"`
	AutoStart     bool `toml:"auto_start"`
	StartOnAdd    bool `toml:"start_on_add"`
}

// Capture contains settings for the external capture tool.
type Capture struct {
	FFmpegBinary    string `toml:"ffmpeg_binary"`
	FFprobeBinary   string `toml:"ffprobe_binary"`
	Extension       string `toml:"extension"`
	StartGrace      int    `toml:"start_grace"`
	StopTimeout     int    `toml:"stop_timeout"`
	SnapshotTimeout int    `toml:"snapshot_timeout"`
	SnapshotMaxAge  int    `toml:"snapshot_max_age"`
	SnapshotWidth   int    `toml:"snapshot_width"`
}

// Chaturbate contains connection settings for the Chaturbate site adapter.
type Chaturbate struct {
	BaseURL        string `toml:"base_url"`
	UserAgent      string `toml:"user_agent"`
	RequestTimeout int    `toml:"request_timeout"`
	ProbeTimeout   int    `toml:"probe_timeout"`
}

// Sites groups per-site adapter settings.
type Sites struct {
	Chaturbate Chaturbate `toml:"chaturbate"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications contains ntfy settings and per-event switches.
type Notifications struct {
	NtfyTopic         string `toml:"ntfy_topic"`
	RequestTimeout    int    `toml:"request_timeout"`
	StreamOnline      bool   `toml:"stream_online"`
	RecordingStarted  bool   `toml:"recording_started"`
	RecordingFinished bool   `toml:"recording_finished"`
	Errors            bool   `toml:"errors"`
}

// Config encapsulates all configuration values for streamkeeper.
//
// Configuration sections by subsystem:
//   - Paths: recordings, snapshots, state, logs and the API bind address
//   - Monitor: poll interval and start behaviour
//   - Capture: ffmpeg binaries and capture/snapshot timing
//   - Sites: per-site adapter connection settings
//   - Notifications: ntfy topic and event switches
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Monitor       Monitor       `toml:"monitor"`
	Capture       Capture       `toml:"capture"`
	Sites         Sites         `toml:"sites"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	loadDotEnv()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads ./.env when present. Variables already set in the
// environment are left untouched.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	_ = godotenv.Load(".env")
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("streamkeeper.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RecordingsDir, c.Paths.SnapshotDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the persisted watchlist.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "streamkeeper.db")
}

// SocketPath returns the location of the daemon IPC socket.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "streamkeeper.sock")
}

// LockPath returns the single-instance lock file used by the daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "streamkeeper.lock")
}

// PIDPath returns the file the daemon records its process ID in.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "streamkeeper.pid")
}

// CheckInterval returns the poll interval between liveness checks.
func (c *Config) CheckInterval() time.Duration {
	return seconds(c.Monitor.CheckInterval)
}

// StartGrace returns how long a fresh capture must survive before it counts as started.
func (c *Config) StartGrace() time.Duration {
	return seconds(c.Capture.StartGrace)
}

// StopTimeout returns how long a graceful capture stop may take before the process is killed.
func (c *Config) StopTimeout() time.Duration {
	return seconds(c.Capture.StopTimeout)
}

// SnapshotTimeout bounds a single-frame snapshot invocation.
func (c *Config) SnapshotTimeout() time.Duration {
	return seconds(c.Capture.SnapshotTimeout)
}

// SnapshotMaxAge is the freshness window during which an existing snapshot is reused.
func (c *Config) SnapshotMaxAge() time.Duration {
	return seconds(c.Capture.SnapshotMaxAge)
}

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
