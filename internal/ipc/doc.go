// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships the
// matching client used by the CLI.
//
// Request and response types reuse the HTTP API DTOs so both surfaces report
// streamers, recordings and action results identically.
package ipc
