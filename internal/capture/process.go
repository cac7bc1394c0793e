package capture

import (
	"bytes"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// stderrTailLimit bounds the retained stderr of a capture process.
const stderrTailLimit = 8 << 10

// Process is the handle for one running capture.
type Process struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stderr    *tailBuffer
	output    string
	startedAt time.Time

	done    chan struct{}
	exitErr error

	stopOnce sync.Once
}

func (p *Process) PID() int {
	if p == nil || p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *Process) OutputPath() string { return p.output }

func (p *Process) StartedAt() time.Time { return p.startedAt }

// Done is closed once the process has been reaped.
func (p *Process) Done() <-chan struct{} { return p.done }

// Alive reports whether the process has not exited yet.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// ExitErr returns the cmd.Wait result; valid only after Done is closed.
func (p *Process) ExitErr() error {
	select {
	case <-p.done:
		return p.exitErr
	default:
		return nil
	}
}

// Stderr returns the retained tail of the process's stderr.
func (p *Process) Stderr() string {
	return p.stderr.String()
}

func (p *Process) reap() {
	p.exitErr = p.cmd.Wait()
	close(p.done)
}

// killGroup sends SIGKILL to the process group, falling back to the leader.
func (p *Process) killGroup() error {
	pid := p.PID()
	if pid <= 0 {
		return nil
	}
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return p.cmd.Process.Kill()
	}
	return nil
}

func newProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	if t == nil {
		return ""
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(bytes.ToValidUTF8(t.buf, nil)))
}
