package capture

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"streamkeeper/internal/logging"
)

// CaptureSnapshot grabs one frame of locator into the user's preview image.
// A preview younger than the max age is kept and counts as success.
func (s *Supervisor) CaptureSnapshot(ctx context.Context, locator, username string) bool {
	target := SnapshotPath(s.opts.SnapshotDir, username)
	unlock := s.locks.lock(username)
	defer unlock()

	if info, err := os.Stat(target); err == nil && s.now().Sub(info.ModTime()) < s.opts.SnapshotMaxAge {
		return true
	}

	logger := s.logger.With(logging.String(logging.FieldStreamer, username))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		logging.WarnWithContext(logger, "snapshot directory unavailable", "snapshot_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "dashboard falls back to the site thumbnail"),
		)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.SnapshotTimeout)
	defer cancel()

	partial := target + ".tmp"
	defer os.Remove(partial)

	cmd := exec.CommandContext(ctx, s.opts.FFmpegBinary, snapshotArgs(locator, partial, s.opts.SnapshotWidth)...)
	cmd.SysProcAttr = newProcAttr()
	proc := &Process{cmd: cmd}
	cmd.Cancel = proc.killGroup
	cmd.WaitDelay = time.Second
	stderr := newTailBuffer(stderrTailLimit)
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		err = promoteSnapshot(partial, target)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ctx.Err()
		}
		logging.WarnWithContext(logger, "snapshot failed", "snapshot_failed",
			logging.Error(err),
			logging.String("stderr", stderr.String()),
			logging.String(logging.FieldErrorHint, "check ffmpeg can read the stream"),
			logging.String(logging.FieldImpact, "dashboard falls back to the site thumbnail"),
		)
		return false
	}
	logger.Debug("snapshot captured", logging.String("path", target))
	return true
}

// promoteSnapshot replaces target with a non-empty partial image.
func promoteSnapshot(partial, target string) error {
	info, err := os.Stat(partial)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return errors.New("ffmpeg wrote an empty snapshot")
	}
	return os.Rename(partial, target)
}

// keyedMutex serializes work per key and drops idle entries.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
