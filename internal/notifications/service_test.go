package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"streamkeeper/internal/config"
	"streamkeeper/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventRecordingStarted, notifications.Payload{"streamer": "alice"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("expected nil config to yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "stream online",
			event:         notifications.EventStreamOnline,
			payload:       notifications.Payload{"streamer": "alice", "site": "CB"},
			expectTitle:   "Streamkeeper - Online",
			expectMessage: "🟢 alice@CB is live",
			expectTags:    "streamkeeper,online",
		},
		{
			name:          "recording started",
			event:         notifications.EventRecordingStarted,
			payload:       notifications.Payload{"streamer": "alice", "site": "CB", "output": "/rec/alice/a.mp4"},
			expectTitle:   "Streamkeeper - Recording",
			expectMessage: "⏺️ Recording alice@CB\nFile: /rec/alice/a.mp4",
			expectTags:    "streamkeeper,recording,started",
		},
		{
			name:          "recording finished without output",
			event:         notifications.EventRecordingFinished,
			payload:       notifications.Payload{"streamer": "bob"},
			expectTitle:   "Streamkeeper - Recording Finished",
			expectMessage: "⏹️ Recording finished: bob",
			expectTags:    "streamkeeper,recording,completed",
		},
		{
			name:           "capture failed",
			event:          notifications.EventCaptureFailed,
			payload:        notifications.Payload{"streamer": "alice", "site": "CB", "error": "ffmpeg exited"},
			expectTitle:    "Streamkeeper - Error",
			expectMessage:  "❌ Capture failed for alice@CB: ffmpeg exited",
			expectTags:     "streamkeeper,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "Streamkeeper - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "streamkeeper,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceSkipsDisabledEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for disabled event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.StreamOnline = false
	cfg.Notifications.RecordingFinished = false

	svc := notifications.NewService(&cfg)
	for _, event := range []notifications.Event{
		notifications.EventStreamOnline,
		notifications.EventRecordingFinished,
		notifications.Event("unknown"),
	} {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"streamer": "alice"}); err != nil {
			t.Fatalf("expected no error for disabled event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}
