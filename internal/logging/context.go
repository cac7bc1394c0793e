package logging

import (
	"context"
	"log/slog"

	"streamkeeper/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStreamer is the standardized structured logging key for monitored usernames.
	FieldStreamer = "streamer"
	// FieldSite is the standardized structured logging key for site abbreviations.
	FieldSite = "site"
	// FieldEventType classifies a record for filtering (e.g. "capture_started").
	FieldEventType = "event_type"
	// FieldErrorHint carries an operator-facing next step on warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldSessionID is the standardized structured logging key for daemon run identifiers.
	FieldSessionID = "session_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if streamer, ok := services.StreamerFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStreamer, streamer))
	}
	if site, ok := services.SiteFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSite, site))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
