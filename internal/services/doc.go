// Package services defines shared helpers consumed by the monitor, capture
// supervisor, site adapters, and the daemon front ends.
//
// Key responsibilities:
//   - Context helpers that stamp streamer names, site codes, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so front ends can classify
//     failures (bad request vs not found vs tool failure) with errors.Is.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform across the daemon.
package services
