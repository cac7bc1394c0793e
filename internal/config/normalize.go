package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMonitor()
	c.normalizeCapture()
	c.normalizeSites()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RecordingsDir) == "" {
		c.Paths.RecordingsDir = defaultRecordingsDir
	}
	if c.Paths.RecordingsDir, err = expandPath(c.Paths.RecordingsDir); err != nil {
		return fmt.Errorf("paths.recordings_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SnapshotDir) == "" {
		c.Paths.SnapshotDir = defaultSnapshotDir
	}
	if c.Paths.SnapshotDir, err = expandPath(c.Paths.SnapshotDir); err != nil {
		return fmt.Errorf("paths.snapshot_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv(apiTokenEnv); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeMonitor() {
	if c.Monitor.CheckInterval == 0 {
		c.Monitor.CheckInterval = defaultCheckInterval
	}
}

func (c *Config) normalizeCapture() {
	c.Capture.FFmpegBinary = strings.TrimSpace(c.Capture.FFmpegBinary)
	if c.Capture.FFmpegBinary == "" {
		c.Capture.FFmpegBinary = defaultFFmpegBinary
	}
	c.Capture.FFprobeBinary = strings.TrimSpace(c.Capture.FFprobeBinary)
	if c.Capture.FFprobeBinary == "" {
		c.Capture.FFprobeBinary = defaultFFprobeBinary
	}
	c.Capture.Extension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Capture.Extension), "."))
	if c.Capture.Extension == "" {
		c.Capture.Extension = defaultExtension
	}
	if c.Capture.SnapshotWidth == 0 {
		c.Capture.SnapshotWidth = defaultSnapshotWidth
	}
}

func (c *Config) normalizeSites() {
	cb := &c.Sites.Chaturbate
	cb.BaseURL = strings.TrimRight(strings.TrimSpace(cb.BaseURL), "/")
	if cb.BaseURL == "" {
		cb.BaseURL = defaultChaturbateBaseURL
	}
	cb.UserAgent = strings.TrimSpace(cb.UserAgent)
	if value, ok := os.LookupEnv(chaturbateUserAgentEnv); ok && strings.TrimSpace(value) != "" {
		cb.UserAgent = strings.TrimSpace(value)
	}
	if cb.UserAgent == "" {
		cb.UserAgent = defaultChaturbateAgent
	}
	if cb.RequestTimeout == 0 {
		cb.RequestTimeout = defaultRequestTimeout
	}
	if cb.ProbeTimeout == 0 {
		cb.ProbeTimeout = defaultProbeTimeout
	}
}

func (c *Config) normalizeNotifications() {
	n := &c.Notifications
	n.NtfyTopic = strings.TrimSpace(n.NtfyTopic)
	if n.NtfyTopic == "" {
		if value, ok := os.LookupEnv(ntfyTopicEnv); ok {
			n.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if n.RequestTimeout == 0 {
		n.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
