package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"streamkeeper/internal/config"
	"streamkeeper/internal/logging"
	"streamkeeper/internal/services"
)

// ErrCaptureStart marks a capture process that exited during its start grace window.
var ErrCaptureStart = fmt.Errorf("%w: capture did not start", services.ErrExternalTool)

// killReapWait bounds how long StopCapture waits for the reaper after SIGKILL.
var killReapWait = 5 * time.Second

// StartError carries the diagnostics of a capture that died during start.
type StartError struct {
	Output string
	Stderr string
	Err    error
}

func (e *StartError) Error() string {
	msg := ErrCaptureStart.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *StartError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCaptureStart}
	}
	return []error{ErrCaptureStart, e.Err}
}

// Options configures a Supervisor. Zero values fall back to defaults.
type Options struct {
	FFmpegBinary    string
	RecordingsDir   string
	SnapshotDir     string
	Extension       string
	StartGrace      time.Duration
	StopTimeout     time.Duration
	SnapshotTimeout time.Duration
	SnapshotMaxAge  time.Duration
	SnapshotWidth   int
	Logger          *slog.Logger
}

// OptionsFromConfig maps the capture and path sections of cfg to Options.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		FFmpegBinary:    cfg.Capture.FFmpegBinary,
		RecordingsDir:   cfg.Paths.RecordingsDir,
		SnapshotDir:     cfg.Paths.SnapshotDir,
		Extension:       cfg.Capture.Extension,
		StartGrace:      cfg.StartGrace(),
		StopTimeout:     cfg.StopTimeout(),
		SnapshotTimeout: cfg.SnapshotTimeout(),
		SnapshotMaxAge:  cfg.SnapshotMaxAge(),
		SnapshotWidth:   cfg.Capture.SnapshotWidth,
		Logger:          logger,
	}
}

// Supervisor starts, stops and snapshots capture processes.
type Supervisor struct {
	opts   Options
	logger *slog.Logger
	locks  *keyedMutex
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewSupervisor constructs a supervisor with defaults applied.
func NewSupervisor(opts Options) *Supervisor {
	if opts.FFmpegBinary == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.Extension == "" {
		opts.Extension = "mp4"
	}
	if opts.StartGrace <= 0 {
		opts.StartGrace = 3 * time.Second
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 10 * time.Second
	}
	if opts.SnapshotTimeout <= 0 {
		opts.SnapshotTimeout = 10 * time.Second
	}
	if opts.SnapshotMaxAge <= 0 {
		opts.SnapshotMaxAge = time.Hour
	}
	if opts.SnapshotWidth <= 0 {
		opts.SnapshotWidth = 400
	}
	return &Supervisor{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "capture"),
		locks:  newKeyedMutex(),
		now:    time.Now,
	}
}

// StartCapture launches ffmpeg recording locator into a new timestamped file.
// It returns only after the process survived the start grace window.
func (s *Supervisor) StartCapture(ctx context.Context, locator, username, siteTag string) (*Process, error) {
	startedAt := s.now()
	output := OutputPath(s.opts.RecordingsDir, username, siteTag, s.opts.Extension, startedAt)
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "capture", "prepare output", "create recordings directory", err)
	}

	// Not CommandContext: the capture outlives the request that started it.
	cmd := exec.Command(s.opts.FFmpegBinary, recordArgs(locator, output)...)
	cmd.SysProcAttr = newProcAttr()
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("capture stdin pipe: %w", err)
	}
	stderr := newTailBuffer(stderrTailLimit)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, &StartError{Output: output, Err: err}
	}

	proc := &Process{
		cmd:       cmd,
		stdin:     stdin,
		stderr:    stderr,
		output:    output,
		startedAt: startedAt,
		done:      make(chan struct{}),
	}
	go proc.reap()

	logger := s.logger.With(
		logging.String(logging.FieldStreamer, username),
		logging.String(logging.FieldSite, siteTag),
	)

	grace := time.NewTimer(s.opts.StartGrace)
	defer grace.Stop()
	select {
	case <-proc.Done():
		removeIfEmpty(output)
		logging.WarnWithContext(logger, "capture exited during start", "capture_start_failed",
			logging.String("output", output),
			logging.String("stderr", proc.Stderr()),
			logging.String(logging.FieldErrorHint, "check the stream locator and ffmpeg binary"),
			logging.String(logging.FieldImpact, "recording will be retried on the next check"),
		)
		return nil, &StartError{Output: output, Stderr: proc.Stderr(), Err: proc.ExitErr()}
	case <-ctx.Done():
		s.StopCapture(proc)
		removeIfEmpty(output)
		return nil, ctx.Err()
	case <-grace.C:
	}

	logger.Info("capture started",
		logging.String(logging.FieldEventType, "capture_started"),
		logging.Int("pid", proc.PID()),
		logging.String("output", output),
	)

	snapCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.CaptureSnapshot(snapCtx, locator, username)
	}()

	return proc, nil
}

// StopCapture asks ffmpeg to quit, killing the process group after the stop
// timeout. It reports true only for the call that terminated a live process
// and saw it reaped; false after a kill means the process may still exist.
func (s *Supervisor) StopCapture(p *Process) bool {
	if p == nil {
		return false
	}
	stopped := false
	p.stopOnce.Do(func() {
		stopped = s.terminate(p)
	})
	return stopped
}

func (s *Supervisor) terminate(p *Process) bool {
	if !p.Alive() {
		_ = p.stdin.Close()
		return false
	}
	logger := s.logger.With(logging.String("output", p.output), logging.Int("pid", p.PID()))

	if _, err := io.WriteString(p.stdin, "q"); err != nil && !errors.Is(err, os.ErrClosed) {
		logger.Debug("write quit request failed", logging.Error(err))
	}
	_ = p.stdin.Close()

	timer := time.NewTimer(s.opts.StopTimeout)
	defer timer.Stop()
	select {
	case <-p.Done():
		logger.Info("capture stopped",
			logging.String(logging.FieldEventType, "capture_stopped"),
			logging.Duration("recorded", s.now().Sub(p.startedAt)),
		)
		return true
	case <-timer.C:
	}

	logging.WarnWithContext(logger, "capture ignored quit request; killing", "capture_stop_timeout",
		logging.Duration("timeout", s.opts.StopTimeout),
		logging.String(logging.FieldErrorHint, "ffmpeg may be stalled on network I/O"),
		logging.String(logging.FieldImpact, "recording tail may be truncated"),
	)
	if err := p.killGroup(); err != nil {
		logging.ErrorWithContext(logger, "kill capture failed", "capture_kill_failed", logging.Error(err))
	}
	select {
	case <-p.Done():
		return true
	case <-time.After(killReapWait):
		logging.ErrorWithContext(logger, "capture not reaped after kill", "capture_kill_failed",
			logging.Duration("waited", killReapWait),
			logging.String(logging.FieldImpact, "capture process may still be running"),
		)
		return false
	}
}

// Wait blocks until detached snapshot goroutines have finished.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func removeIfEmpty(path string) {
	if info, err := os.Stat(path); err == nil && info.Size() == 0 {
		_ = os.Remove(path)
	}
}
