// Package logging assembles structured slog loggers and formatting helpers used
// across streamkeeper.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so monitor and capture code can
// tag log lines with the streamer, site, and request correlation ID. A
// StreamHub keeps a bounded in-memory tail of recent records for the HTTP
// dashboard's log view.
package logging
