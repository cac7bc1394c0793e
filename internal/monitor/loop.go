package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"streamkeeper/internal/logging"
	"streamkeeper/internal/notifications"
)

const notifyTimeout = 15 * time.Second

// run is the poll goroutine for one streamer. The first check happens
// immediately; later checks are spaced by the monitor's interval.
func (m *Monitor) run(ctx context.Context, s *streamer, done chan struct{}) {
	defer m.wg.Done()

	logger := m.logger.With(
		logging.String(logging.FieldStreamer, s.username),
		logging.String(logging.FieldSite, s.siteTag),
	)
	defer m.teardown(s, done, logger)

	logger.Info("monitoring started", logging.String(logging.FieldEventType, "monitor_started"))

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}
		m.cycle(ctx, s, logger)
		timer.Reset(m.interval)
	}
}

// cycle performs one check. Nothing inside it ends the loop.
func (m *Monitor) cycle(ctx context.Context, s *streamer, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.online = false
			s.mu.Unlock()
			logging.ErrorWithContext(logger, "poll cycle panicked", "monitor_cycle_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "this is a bug; report it with the stack"),
			)
		}
	}()

	s.mu.Lock()
	s.checkCount++
	s.lastCheck = m.now()
	s.mu.Unlock()

	live := s.site.IsLive(ctx, s.username)
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	wasOnline := s.online
	s.online = live
	recording := s.recording
	active := s.capture
	s.mu.Unlock()

	if live != wasOnline {
		logger.Info("stream status changed",
			logging.Bool("online", live),
			logging.String(logging.FieldEventType, "stream_status_changed"),
		)
		if live {
			m.notify(s, logger, notifications.EventStreamOnline, nil)
		}
	}

	switch {
	case live && !recording:
		m.startCapture(ctx, s, logger)
	case !live && recording:
		m.recorder.StopCapture(active)
		s.clearRecording()
		logger.Info("stream went offline; capture stopped",
			logging.String("output", active.OutputPath()),
			logging.String(logging.FieldEventType, "recording_finished"),
		)
		m.notify(s, logger, notifications.EventRecordingFinished, notifications.Payload{"output": active.OutputPath()})
	case live && recording && !active.Alive():
		s.clearRecording()
		logging.WarnWithContext(logger, "capture exited while stream is live", "capture_exited",
			logging.String("output", active.OutputPath()),
			logging.String(logging.FieldErrorHint, "ffmpeg gave up reconnecting; check network stability"),
			logging.String(logging.FieldImpact, "a new recording file starts on the next check"),
		)
	}
}

func (m *Monitor) startCapture(ctx context.Context, s *streamer, logger *slog.Logger) {
	locator, ok := s.site.MediaLocator(ctx, s.username)
	if !ok {
		logger.Info("stream live but no locator available",
			logging.String(logging.FieldEventType, "locator_missing"),
		)
		return
	}
	c, err := m.recorder.StartCapture(ctx, locator, s.username, s.siteTag)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(logger, "capture start failed", "capture_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ffmpeg output in the error"),
			logging.String(logging.FieldImpact, "capture retried on the next check"),
		)
		m.notify(s, logger, notifications.EventCaptureFailed, notifications.Payload{"error": err.Error()})
		return
	}
	s.setRecording(c, m.now())
	logger.Info("recording started",
		logging.String("output", c.OutputPath()),
		logging.String(logging.FieldEventType, "recording_started"),
	)
	m.notify(s, logger, notifications.EventRecordingStarted, notifications.Payload{"output": c.OutputPath()})
}

// teardown runs exactly once per poll goroutine: it stops any capture, clears
// the runtime flags and releases waiters on done.
func (m *Monitor) teardown(s *streamer, done chan struct{}, logger *slog.Logger) {
	s.mu.Lock()
	active := s.capture
	s.mu.Unlock()

	if active != nil {
		m.recorder.StopCapture(active)
		logger.Info("capture stopped on monitor stop",
			logging.String("output", active.OutputPath()),
			logging.String(logging.FieldEventType, "recording_finished"),
		)
		m.notify(s, logger, notifications.EventRecordingFinished, notifications.Payload{"output": active.OutputPath()})
	}

	s.mu.Lock()
	s.recording = false
	s.capture = nil
	s.recordingSince = time.Time{}
	s.monitoring = false
	s.stopRequested = false
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()
	close(done)

	logger.Info("monitoring stopped", logging.String(logging.FieldEventType, "monitor_stopped"))
}

// notify publishes in the background so a slow ntfy server never delays a
// poll cycle or a stop.
func (m *Monitor) notify(s *streamer, logger *slog.Logger, event notifications.Event, extra notifications.Payload) {
	if m.notifier == nil {
		return
	}
	payload := notifications.Payload{"streamer": s.username, "site": s.siteTag}
	for k, v := range extra {
		payload[k] = v
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := m.notifier.Publish(ctx, event, payload); err != nil {
			logging.WarnWithContext(logger, "notification failed", "notification_failed",
				logging.String("event", string(event)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			)
		}
	}()
}
