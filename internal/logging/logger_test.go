package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"streamkeeper/internal/config"
	"streamkeeper/internal/logging"
	"streamkeeper/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "streamkeeper.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func tempLogPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name+".log")
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := tempLogPath(t, "console")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if content := readLog(t, logPath); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := tempLogPath(t, "console")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "debug",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("message with caller")

	if content := readLog(t, logPath); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersSubject(t *testing.T) {
	logPath := tempLogPath(t, "console")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "monitor").Info("stream online",
		logging.String(logging.FieldStreamer, "alice"),
		logging.String(logging.FieldSite, "CB"),
		logging.Int("check_count", 3),
	)

	content := readLog(t, logPath)
	for _, want := range []string{"INFO [monitor] alice@CB - stream online", "- check_count: 3"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := tempLogPath(t, "json")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
		SessionID:   "session-1",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("capture stopped",
		logging.String(logging.FieldStreamer, "bob"),
		logging.Duration("uptime", 90*time.Second),
	)

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["level"] != "warn" || payload["msg"] != "capture stopped" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
	if payload[logging.FieldSessionID] != "session-1" {
		t.Fatalf("expected session id, got %v", payload)
	}
	if payload["uptime"] != 90.0 {
		t.Fatalf("expected duration in seconds, got %v", payload["uptime"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsStreamerFields(t *testing.T) {
	hub := logging.NewStreamHub(16)
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{filepath.Join(t.TempDir(), "ctx.log")},
		Stream:      hub,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithStreamer(context.Background(), "carol")
	ctx = services.WithSite(ctx, "CB")
	ctx = services.WithRequestID(ctx, "req-9")
	logging.WithContext(ctx, logger).Info("checked")

	events, _ := hub.Tail(logging.EventQuery{Limit: 1})
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	evt := events[0]
	if evt.Streamer != "carol" || evt.Site != "CB" || evt.CorrelationID != "req-9" {
		t.Fatalf("unexpected context fields: %+v", evt)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	hub := logging.NewStreamHub(16)
	logger, err := logging.New(logging.Options{
		Format:      "json",
		OutputPaths: []string{filepath.Join(t.TempDir(), "warn.log")},
		Stream:      hub,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "snapshot failed", "snapshot_failed")

	events, _ := hub.Tail(logging.EventQuery{Limit: 1})
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	fields := events[0].Fields
	if fields[logging.FieldEventType] != "snapshot_failed" {
		t.Fatalf("expected event type, got %v", fields)
	}
	if fields[logging.FieldErrorHint] == "" || fields[logging.FieldImpact] == "" {
		t.Fatalf("expected hint and impact defaults, got %v", fields)
	}
}
