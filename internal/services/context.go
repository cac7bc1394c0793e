package services

import "context"

type contextKey string

const (
	streamerKey  contextKey = "streamer"
	siteKey      contextKey = "site"
	requestIDKey contextKey = "request_id"
)

// WithStreamer annotates context with the username being monitored.
func WithStreamer(ctx context.Context, username string) context.Context {
	if username == "" {
		return ctx
	}
	return context.WithValue(ctx, streamerKey, username)
}

// StreamerFromContext returns the username if present.
func StreamerFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(streamerKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSite annotates context with the site abbreviation.
func WithSite(ctx context.Context, site string) context.Context {
	if site == "" {
		return ctx
	}
	return context.WithValue(ctx, siteKey, site)
}

// SiteFromContext returns the site abbreviation if present.
func SiteFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(siteKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
