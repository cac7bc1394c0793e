package logging

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestStreamHandlerIncludesScopedAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	handler := newStreamHandler(slog.NewTextHandler(discardWriter{}, nil), hub)

	logger := slog.New(handler).
		With(slog.String(FieldComponent, "monitor")).
		With(slog.String(FieldStreamer, "alice"), slog.String(FieldSite, "CB"))

	logger.Info("capture started", slog.String("output", "/tmp/x.mp4"))

	events, _ := hub.Tail(EventQuery{Limit: 10})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	evt := events[0]
	if evt.Component != "monitor" || evt.Streamer != "alice" || evt.Site != "CB" {
		t.Fatalf("unexpected scoped fields: %+v", evt)
	}
	if evt.Fields["output"] != "/tmp/x.mp4" {
		t.Fatalf("expected output field, got %v", evt.Fields)
	}
	if evt.Sequence != 1 {
		t.Fatalf("expected sequence 1, got %d", evt.Sequence)
	}
}

func TestStreamHandlerCallSiteOverridesScopedAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	handler := newStreamHandler(slog.NewTextHandler(discardWriter{}, nil), hub)

	logger := slog.New(handler).With(slog.String(FieldStreamer, "original"))
	logger.Info("message", slog.String(FieldStreamer, "overridden"))

	events, _ := hub.Tail(EventQuery{Limit: 10})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Streamer != "overridden" {
		t.Errorf("expected streamer=overridden, got %q", events[0].Streamer)
	}
}

func TestStreamHandlerNilHubReturnsBase(t *testing.T) {
	base := slog.NewTextHandler(discardWriter{}, nil)
	if handler := newStreamHandler(base, nil); handler != base {
		t.Errorf("expected base handler when hub is nil")
	}
}

func TestStreamHandlerDelegatesEnabled(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	handler := newStreamHandler(base, hub)

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected INFO to be disabled when base level is WARN")
	}
	if !handler.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("expected WARN to be enabled when base level is WARN")
	}
}

func TestStreamHubDropsOldestPastCapacity(t *testing.T) {
	hub := NewStreamHub(3)
	for i := 0; i < 5; i++ {
		hub.Publish(LogEvent{Message: "event"})
	}
	events, next := hub.Tail(EventQuery{})
	if len(events) != 3 {
		t.Fatalf("expected 3 buffered events, got %d", len(events))
	}
	if next != 5 {
		t.Fatalf("expected next sequence 5, got %d", next)
	}
	if first := hub.FirstSequence(); first != 3 {
		t.Fatalf("expected first sequence 3, got %d", first)
	}
}

func TestStreamHubFetchSince(t *testing.T) {
	hub := NewStreamHub(10)
	for i := 0; i < 4; i++ {
		hub.Publish(LogEvent{Message: "event"})
	}
	events, next, err := hub.Fetch(context.Background(), EventQuery{Since: 2})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(events) != 2 || events[0].Sequence != 3 {
		t.Fatalf("unexpected events: %+v", events)
	}
	if next != 4 {
		t.Fatalf("expected next 4, got %d", next)
	}
}

func TestStreamHubFetchWaitHonoursContext(t *testing.T) {
	hub := NewStreamHub(10)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := hub.Fetch(ctx, EventQuery{Wait: true})
	if err == nil {
		t.Fatal("expected context error from blocking fetch")
	}
}

func TestStreamHubFiltersByStreamer(t *testing.T) {
	hub := NewStreamHub(10)
	hub.Publish(LogEvent{Message: "a1", Streamer: "alice", Site: "CB"})
	hub.Publish(LogEvent{Message: "b1", Streamer: "bob", Site: "CB"})
	hub.Publish(LogEvent{Message: "a2", Streamer: "alice", Site: "CB"})
	hub.Publish(LogEvent{Message: "daemon"})

	events, next := hub.Tail(EventQuery{Limit: 1, Streamer: "ALICE"})
	if len(events) != 1 || events[0].Message != "a2" || next != 4 {
		t.Fatalf("unexpected tail %+v next=%d", events, next)
	}
	events, _, err := hub.Fetch(context.Background(), EventQuery{Streamer: "alice", Site: "cb"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(events) != 2 || events[0].Message != "a1" || events[1].Message != "a2" {
		t.Fatalf("unexpected fetch %+v", events)
	}
}

func TestStreamHubWaitSkipsOtherStreamers(t *testing.T) {
	hub := NewStreamHub(10)
	result := make(chan []LogEvent, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		events, _, _ := hub.Fetch(ctx, EventQuery{Wait: true, Streamer: "alice"})
		result <- events
	}()

	hub.Publish(LogEvent{Message: "noise", Streamer: "bob"})
	time.Sleep(20 * time.Millisecond)
	hub.Publish(LogEvent{Message: "wanted", Streamer: "alice"})

	events := <-result
	if len(events) != 1 || events[0].Message != "wanted" {
		t.Fatalf("expected only alice's event, got %+v", events)
	}
}

func TestStreamHubRingWrapsInOrder(t *testing.T) {
	hub := NewStreamHub(3)
	for _, msg := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		hub.Publish(LogEvent{Message: msg})
	}
	events, _ := hub.Tail(EventQuery{})
	if len(events) != 3 || events[0].Message != "5" || events[2].Message != "7" {
		t.Fatalf("unexpected ring order %+v", events)
	}
	events, _, _ = hub.Fetch(context.Background(), EventQuery{Since: 5, Limit: 1})
	if len(events) != 1 || events[0].Sequence != 6 {
		t.Fatalf("unexpected fetch after wrap %+v", events)
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
