// Package daemon coordinates the long-running streamkeeper process.
//
// It wires configuration, the persisted watchlist, the site adapters, the
// capture supervisor and the monitor into a single lifecycle guarded by a
// flock-based lock so only one instance records at a time. On start the
// daemon loads the watchlist into the monitor, optionally starts every
// streamer, and serves the HTTP dashboard API. Stop tears captures down
// before releasing the lock.
//
// Keep orchestration here: polling belongs to internal/monitor and process
// handling to internal/capture.
package daemon
