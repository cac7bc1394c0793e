// Package ffprobe inspects capture artifacts with the ffprobe binary.
//
// Inspect runs ffprobe with JSON output and decodes the streams and
// container format. The recordings library uses it to attach a duration
// and resolution to listed files when the caller asks for a probe.
package ffprobe
