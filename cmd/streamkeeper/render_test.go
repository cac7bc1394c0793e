package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"streamkeeper/internal/api"
	"streamkeeper/internal/logging"
)

func TestRenderStatusLine(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "Running", false)
	if got != "  Daemon:              [OK] Running" {
		t.Fatalf("unexpected line %q", got)
	}
	colored := renderStatusLine("Daemon", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected colored line, got %q", colored)
	}
}

func TestStatusKindFromSeverity(t *testing.T) {
	cases := []struct {
		severity string
		want     statusKind
	}{
		{severity: "ok", want: statusOK},
		{severity: " WARN ", want: statusWarn},
		{severity: "error", want: statusError},
		{severity: "", want: statusInfo},
	}
	for _, tc := range cases {
		if got := statusKindFromSeverity(tc.severity); got != tc.want {
			t.Fatalf("%q: expected %v, got %v", tc.severity, tc.want, got)
		}
	}
}

func TestRenderStreamersTable(t *testing.T) {
	var out bytes.Buffer
	renderStreamers(&out, &api.StatusResponse{
		TotalStreamers:   2,
		OnlineStreamers:  1,
		ActiveRecordings: 1,
		Streamers: []api.StreamerStatus{
			{Username: "alice", Site: "CB", IsOnline: true, IsRecording: true, IsMonitoring: true, Duration: "01m 05s", CheckCount: 3},
			{Username: "bob", Site: "CB", Duration: "-"},
		},
	})
	text := out.String()
	for _, fragment := range []string{"alice", "recording", "01m 05s", "paused", "2 streamers, 1 online, 1 recording"} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected %q in %q", fragment, text)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	if got := relativeTime(""); got != "-" {
		t.Fatalf("expected dash, got %q", got)
	}
	if got := relativeTime("garbage"); got != "garbage" {
		t.Fatalf("expected passthrough, got %q", got)
	}
	stamp := time.Now().Add(-2 * time.Minute).UTC().Format("2006-01-02T15:04:05.000Z07:00")
	if got := relativeTime(stamp); got != "2 minutes ago" {
		t.Fatalf("unexpected relative time %q", got)
	}
}

func TestPrintAction(t *testing.T) {
	var out bytes.Buffer
	if err := printAction(&out, &api.ActionResponse{Success: true, Message: "done"}); err != nil {
		t.Fatalf("printAction: %v", err)
	}
	if out.String() != "done\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	err := printAction(&out, &api.ActionResponse{Message: "streamer not found"})
	if err == nil || err.Error() != "streamer not found" {
		t.Fatalf("expected failure message as error, got %v", err)
	}
	if printAction(&out, nil) == nil {
		t.Fatal("expected nil response to fail")
	}
}

func TestFormatLogEvent(t *testing.T) {
	evt := logging.LogEvent{
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local),
		Level:     "info",
		Message:   "recording started",
		Component: "monitor",
		Streamer:  "alice",
		Site:      "CB",
		Fields:    map[string]string{"pid": "42", "path": "/r/a.mp4"},
	}
	got := formatLogEvent(evt)
	want := "2024-01-02 03:04:05 INFO  [monitor] alice@CB recording started path=/r/a.mp4 pid=42"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
