// Package capture supervises the external ffmpeg processes that record live
// streams and grab preview snapshots.
//
// A capture runs in its own process group with stdin held open as a control
// channel. StopCapture asks ffmpeg to finish by writing "q", waits for the
// configured timeout, then kills the whole group. A reaper goroutine owns
// cmd.Wait for every process so nothing is left as a zombie.
package capture
