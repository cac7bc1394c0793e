package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTimings(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSites(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTimings() error {
	return ensurePositiveMap(map[string]int{
		"monitor.check_interval":           c.Monitor.CheckInterval,
		"capture.start_grace":              c.Capture.StartGrace,
		"capture.stop_timeout":             c.Capture.StopTimeout,
		"capture.snapshot_timeout":         c.Capture.SnapshotTimeout,
		"capture.snapshot_max_age":         c.Capture.SnapshotMaxAge,
		"capture.snapshot_width":           c.Capture.SnapshotWidth,
		"sites.chaturbate.request_timeout": c.Sites.Chaturbate.RequestTimeout,
		"sites.chaturbate.probe_timeout":   c.Sites.Chaturbate.ProbeTimeout,
		"notifications.request_timeout":    c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateCapture() error {
	if strings.ContainsAny(c.Capture.Extension, `/\ `) {
		return fmt.Errorf("capture.extension %q must be a bare file extension", c.Capture.Extension)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.RecordingsDir == c.Paths.SnapshotDir {
		return errors.New("paths.snapshot_dir must differ from paths.recordings_dir")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q must be host:port: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateSites() error {
	parsed, err := url.Parse(c.Sites.Chaturbate.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("sites.chaturbate.base_url %q must be an absolute URL", c.Sites.Chaturbate.BaseURL)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic %q must be a full topic URL", c.Notifications.NtfyTopic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
