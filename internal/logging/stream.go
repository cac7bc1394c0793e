package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const defaultHubCapacity = 512

// LogEvent is one structured log line as kept by the hub and served by /api/logs.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	Streamer      string            `json:"streamer,omitempty"`
	Site          string            `json:"site,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// EventQuery selects events from a StreamHub. Streamer and Site match
// case-insensitively; empty means any.
type EventQuery struct {
	Since    uint64
	Limit    int
	Wait     bool
	Streamer string
	Site     string
}

func (q EventQuery) matches(evt LogEvent) bool {
	if q.Streamer != "" && !strings.EqualFold(evt.Streamer, q.Streamer) {
		return false
	}
	if q.Site != "" && !strings.EqualFold(evt.Site, q.Site) {
		return false
	}
	return true
}

// StreamHub is a fixed-size ring of recent log events. Readers either take
// the tail or block until events newer than a sequence arrive.
type StreamHub struct {
	mu   sync.Mutex
	cond *sync.Cond
	ring []LogEvent
	head int
	size int
	seq  uint64
}

// NewStreamHub returns a hub holding at most capacity events.
func NewStreamHub(capacity int) *StreamHub {
	if capacity <= 0 {
		capacity = defaultHubCapacity
	}
	h := &StreamHub{ring: make([]LogEvent, capacity)}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Publish stores evt, evicting the oldest event once the ring is full.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.seq++
	evt.Sequence = h.seq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if h.size < len(h.ring) {
		h.ring[(h.head+h.size)%len(h.ring)] = evt
		h.size++
	} else {
		h.ring[h.head] = evt
		h.head = (h.head + 1) % len(h.ring)
	}
	h.cond.Broadcast()
	h.mu.Unlock()
}

// Fetch returns up to q.Limit matching events newer than q.Since, oldest
// first, plus the latest published sequence. With q.Wait set it blocks until
// a matching event arrives or ctx ends.
func (h *StreamHub) Fetch(ctx context.Context, q EventQuery) ([]LogEvent, uint64, error) {
	if h == nil {
		return nil, q.Since, nil
	}
	q.Limit = h.clampLimit(q.Limit)

	stop := make(chan struct{})
	defer close(stop)
	if q.Wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				h.mu.Lock()
				h.cond.Broadcast()
				h.mu.Unlock()
			case <-stop:
			}
		}()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		events := h.collectLocked(q)
		if len(events) > 0 || !q.Wait {
			return events, h.seq, contextError(ctx)
		}
		if err := contextError(ctx); err != nil {
			return nil, h.seq, err
		}
		h.cond.Wait()
	}
}

// Tail returns the newest q.Limit matching events, oldest first. Since and
// Wait are ignored.
func (h *StreamHub) Tail(q EventQuery) ([]LogEvent, uint64) {
	if h == nil {
		return nil, 0
	}
	limit := h.clampLimit(q.Limit)
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []LogEvent
	for i := h.size - 1; i >= 0 && len(out) < limit; i-- {
		if evt := h.at(i); q.matches(evt) {
			out = append(out, evt)
		}
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out, h.seq
}

// FirstSequence reports the oldest buffered sequence, or the latest one when
// the hub is empty.
func (h *StreamHub) FirstSequence() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.size == 0 {
		return h.seq
	}
	return h.at(0).Sequence
}

func (h *StreamHub) at(i int) LogEvent {
	return h.ring[(h.head+i)%len(h.ring)]
}

func (h *StreamHub) clampLimit(limit int) int {
	if limit <= 0 || limit > len(h.ring) {
		return len(h.ring)
	}
	return limit
}

func (h *StreamHub) collectLocked(q EventQuery) []LogEvent {
	var out []LogEvent
	for i := 0; i < h.size && len(out) < q.Limit; i++ {
		evt := h.at(i)
		if evt.Sequence > q.Since && q.matches(evt) {
			out = append(out, evt)
		}
	}
	return out
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

type streamHandler struct {
	next  slog.Handler
	hub   *StreamHub
	attrs []slog.Attr
}

func newStreamHandler(next slog.Handler, hub *StreamHub) slog.Handler {
	if hub == nil || next == nil {
		return next
	}
	return &streamHandler{next: next, hub: hub}
}

func (h *streamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *streamHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.hub != nil {
		h.hub.Publish(eventFromRecordWithAttrs(record, h.attrs))
	}
	return h.next.Handle(ctx, record.Clone())
}

func (h *streamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	newAttrs = append(newAttrs, h.attrs...)
	newAttrs = append(newAttrs, attrs...)
	return &streamHandler{
		next:  h.next.WithAttrs(attrs),
		hub:   h.hub,
		attrs: newAttrs,
	}
}

func (h *streamHandler) WithGroup(name string) slog.Handler {
	return &streamHandler{
		next:  h.next.WithGroup(name),
		hub:   h.hub,
		attrs: h.attrs,
	}
}

func eventFromRecordWithAttrs(record slog.Record, preAttrs []slog.Attr) LogEvent {
	event := LogEvent{
		Timestamp: record.Time,
		Level:     strings.ToUpper(record.Level.String()),
		Message:   strings.TrimSpace(record.Message),
	}

	apply := func(attr slog.Attr) {
		key := strings.TrimSpace(attr.Key)
		if key == "" {
			return
		}
		switch key {
		case FieldComponent:
			event.Component = attrString(attr.Value)
		case FieldStreamer:
			event.Streamer = attrString(attr.Value)
		case FieldSite:
			event.Site = attrString(attr.Value)
		case FieldCorrelationID:
			event.CorrelationID = attrString(attr.Value)
		default:
			if event.Fields == nil {
				event.Fields = make(map[string]string)
			}
			event.Fields[key] = attrString(attr.Value)
		}
	}

	// Call-site attrs are applied last so they win over logger-scoped ones.
	for _, attr := range preAttrs {
		apply(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		apply(attr)
		return true
	})
	return event
}
