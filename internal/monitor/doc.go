// Package monitor owns the registry of watched streamers and the polling
// goroutine that drives each one through its lifecycle:
//
//	Idle -> Watching -> RecordingActive -> Watching -> Stopped
//
// Monitor.mu guards the registry map and its insertion order. Each streamer
// has its own mutex for the fields its poll goroutine writes and status
// readers observe. Locks are always taken Monitor.mu first and never held
// across network or process I/O.
//
// Stop and Remove wait for the poll goroutine to exit, and the goroutine stops
// any running capture on its way out, so no ffmpeg process outlives its
// streamer.
package monitor
