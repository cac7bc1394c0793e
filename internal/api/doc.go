// Package api defines the wire-format types shared by the HTTP dashboard and
// the IPC server, and the Service that both front ends call into.
//
// # Key Types
//
// StatusResponse: dashboard totals plus one StreamerStatus per watched
// streamer, in registration order.
//
// RecordingsResponse: capture artifacts sorted by size, largest first.
//
// ActionRequest/ActionResponse: add, remove, start and stop requests and the
// {success, message} envelope every mutation answers with.
//
// DaemonStatus: daemon runtime information including dependency checks.
//
// # Service
//
// Service applies a mutation to the in-memory registry and then to the
// persisted watchlist, rolling the registry back when persistence fails, so
// the two never disagree after a successful call.
//
// # Design Notes
//
// JSON tags are snake_case to match the dashboard payloads. Durations are
// rendered as text ("1h 02m 03s") alongside raw seconds for scripting.
package api
