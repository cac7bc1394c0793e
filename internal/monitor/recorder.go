package monitor

import (
	"context"

	"streamkeeper/internal/capture"
)

// Capture is the view of a running capture the poll loop needs.
type Capture interface {
	Alive() bool
	OutputPath() string
}

// Recorder starts and stops captures on behalf of the poll loop.
type Recorder interface {
	StartCapture(ctx context.Context, locator, username, siteTag string) (Capture, error)
	StopCapture(c Capture) bool
}

// SupervisorRecorder adapts a capture.Supervisor to Recorder.
type SupervisorRecorder struct {
	Supervisor *capture.Supervisor
}

func (r SupervisorRecorder) StartCapture(ctx context.Context, locator, username, siteTag string) (Capture, error) {
	proc, err := r.Supervisor.StartCapture(ctx, locator, username, siteTag)
	if err != nil {
		return nil, err
	}
	return proc, nil
}

func (r SupervisorRecorder) StopCapture(c Capture) bool {
	proc, ok := c.(*capture.Process)
	if !ok {
		return false
	}
	return r.Supervisor.StopCapture(proc)
}
