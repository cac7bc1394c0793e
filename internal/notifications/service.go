package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"streamkeeper/internal/config"
)

const userAgent = "streamkeeper/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventStreamOnline      Event = "stream_online"
	EventRecordingStarted  Event = "recording_started"
	EventRecordingFinished Event = "recording_finished"
	EventCaptureFailed     Event = "capture_failed"
	EventTest              Event = "test"
)

// Payload carries event fields. Keys used: streamer, site, output, error.
type Payload map[string]string

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventStreamOnline:      cfg.Notifications.StreamOnline,
			EventRecordingStarted:  cfg.Notifications.RecordingStarted,
			EventRecordingFinished: cfg.Notifications.RecordingFinished,
			EventCaptureFailed:     cfg.Notifications.Errors,
			EventTest:              true,
		},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if n == nil || n.client == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, data Payload) (payload, bool) {
	who := streamerLabel(data)
	switch event {
	case EventStreamOnline:
		return payload{
			title:   "Streamkeeper - Online",
			message: fmt.Sprintf("🟢 %s is live", who),
			tags:    []string{"streamkeeper", "online"},
		}, true
	case EventRecordingStarted:
		msg := fmt.Sprintf("⏺️ Recording %s", who)
		if output := strings.TrimSpace(data["output"]); output != "" {
			msg = fmt.Sprintf("%s\nFile: %s", msg, output)
		}
		return payload{
			title:   "Streamkeeper - Recording",
			message: msg,
			tags:    []string{"streamkeeper", "recording", "started"},
		}, true
	case EventRecordingFinished:
		msg := fmt.Sprintf("⏹️ Recording finished: %s", who)
		if output := strings.TrimSpace(data["output"]); output != "" {
			msg = fmt.Sprintf("%s\nFile: %s", msg, output)
		}
		return payload{
			title:   "Streamkeeper - Recording Finished",
			message: msg,
			tags:    []string{"streamkeeper", "recording", "completed"},
		}, true
	case EventCaptureFailed:
		reason := strings.TrimSpace(data["error"])
		if reason == "" {
			reason = "unknown"
		}
		return payload{
			title:    "Streamkeeper - Error",
			message:  fmt.Sprintf("❌ Capture failed for %s: %s", who, reason),
			tags:     []string{"streamkeeper", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return payload{
			title:    "Streamkeeper - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"streamkeeper", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func streamerLabel(data Payload) string {
	name := strings.TrimSpace(data["streamer"])
	if name == "" {
		name = "unknown"
	}
	if tag := strings.TrimSpace(data["site"]); tag != "" {
		return name + "@" + tag
	}
	return name
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
