package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"streamkeeper/internal/api"
	"streamkeeper/internal/config"
	"streamkeeper/internal/deps"
	"streamkeeper/internal/ipc"
	"streamkeeper/internal/logging"
	"streamkeeper/internal/recordings"
	"streamkeeper/internal/watchlist"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State StartState
	PID   int
}

// ErrDaemonNotRunning indicates daemon IPC is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Launch starts a detached `streamkeeper daemon run` process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}
	args := []string{"daemon", "run"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for IPC socket availability and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon unless it already answers on socketPath.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	state := StartStateAlreadyRunning
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if launchErr := Launch(executablePath, opts); launchErr != nil {
			return StartResult{}, launchErr
		}
		client, err = WaitForClient(socketPath, waitTimeout)
		if err != nil {
			return StartResult{}, err
		}
		state = StartStateStarted
	}
	defer client.Close()

	result := StartResult{State: state}
	if info, infoErr := client.Daemon(); infoErr == nil {
		result.PID = info.PID
	}
	return result, nil
}

// WaitForShutdown waits for the daemon socket to stop answering.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			if isDaemonUnavailable(err) {
				return nil
			}
			time.Sleep(200 * time.Millisecond)
			continue
		}
		_ = client.Close()
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not stop within %s", timeout)
}

// ProcessInfo returns whether daemon IPC is reachable and the daemon PID when available.
func ProcessInfo(socketPath string) (bool, int, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	defer client.Close()
	info, err := client.Daemon()
	if err != nil {
		return true, 0, err
	}
	return true, info.PID, nil
}

// ForceKillProcess sends SIGKILL to the daemon and cleans pid and lock files.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid := fallbackPID
	data, err := os.ReadFile(pidPath)
	switch {
	case err == nil:
		if parsed, parseErr := strconv.Atoi(strings.TrimSpace(string(data))); parseErr == nil && parsed > 0 {
			pid = parsed
		}
	case !errors.Is(err, os.ErrNotExist):
		return 0, fmt.Errorf("read daemon pid file %q: %w", pidPath, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return 0, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

// StopResult captures daemon stop outcome.
type StopResult struct {
	Acknowledged bool
	ForcedKill   bool
	PID          int
}

// StopAndTerminate asks the daemon to shut down and force-kills it if it is
// still answering after gracePeriod.
func StopAndTerminate(cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	socketPath := cfg.SocketPath()
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	var result StopResult
	if info, infoErr := client.Daemon(); infoErr == nil {
		result.PID = info.PID
	}
	resp, err := client.Shutdown()
	_ = client.Close()
	if err != nil {
		return result, err
	}
	result.Acknowledged = resp.Accepted

	if WaitForShutdown(socketPath, gracePeriod) == nil {
		return result, nil
	}
	alive, livePID, aliveErr := ProcessInfo(socketPath)
	if aliveErr != nil || !alive {
		return result, nil
	}
	if livePID != 0 {
		result.PID = livePID
	}
	killed, err := ForceKillProcess(cfg.PIDPath(), cfg.LockPath(), result.PID)
	if err != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", err)
	}
	_ = os.Remove(socketPath)
	result.ForcedKill = true
	result.PID = killed
	return result, nil
}

// StatusLine is one labelled row of the status report.
type StatusLine struct {
	Label    string
	Severity string
	Detail   string
}

// DependencySummary aggregates dependency readiness.
type DependencySummary struct {
	Total           int
	Available       int
	MissingRequired int
	MissingOptional int
	Severity        string
	Detail          string
}

// Snapshot combines live daemon state with offline fallbacks read straight
// from the watchlist database and recordings directory.
type Snapshot struct {
	Daemon            api.DaemonStatus
	Status            api.StatusResponse
	Checks            []StatusLine
	DependencySummary DependencySummary
}

// BuildStatusSnapshot collects daemon status, falling back to on-disk state
// when the daemon is not running.
func BuildStatusSnapshot(ctx context.Context, cfg *config.Config) (*Snapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snap := &Snapshot{}
	if client, err := ipc.Dial(cfg.SocketPath()); err == nil {
		if info, infoErr := client.Daemon(); infoErr == nil {
			snap.Daemon = *info
		}
		if status, statusErr := client.Status(); statusErr == nil {
			snap.Status = *status
		}
		_ = client.Close()
	}

	if !snap.Daemon.Running {
		snap.Daemon.DatabasePath = cfg.DatabasePath()
		snap.Daemon.LockFilePath = cfg.LockPath()
		snap.Daemon.SocketPath = cfg.SocketPath()
		snap.Status = offlineStatus(ctx, cfg)
	}
	if len(snap.Daemon.Dependencies) == 0 {
		snap.Daemon.Dependencies = ResolveDependencies(ctx, cfg)
	}
	snap.Checks = BuildSystemChecks(cfg, snap.Daemon)
	snap.DependencySummary = BuildDependencySummary(snap.Daemon.Dependencies)
	return snap, nil
}

func offlineStatus(ctx context.Context, cfg *config.Config) api.StatusResponse {
	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := api.StatusResponse{Streamers: []api.StreamerStatus{}}
	if store, err := watchlist.Open(cfg); err == nil {
		entries, listErr := store.List(queryCtx)
		_ = store.Close()
		if listErr == nil {
			for _, entry := range entries {
				status.Streamers = append(status.Streamers, api.StreamerStatus{
					Username: entry.Username,
					Site:     entry.Site,
					State:    "stopped",
					Duration: "-",
				})
			}
		}
	}
	status.TotalStreamers = len(status.Streamers)
	if count, err := recordings.FromConfig(cfg, logging.NewNop()).Count(); err == nil {
		status.TotalFiles = count
	}
	return status
}

// ResolveDependencies checks capture binaries locally.
func ResolveDependencies(ctx context.Context, cfg *config.Config) []api.DependencyStatus {
	checks := deps.CheckCapture(ctx, cfg)
	out := make([]api.DependencyStatus, 0, len(checks))
	for _, check := range checks {
		out = append(out, api.DependencyStatus{
			Name:        check.Name,
			Command:     check.Command,
			Description: check.Description,
			Optional:    check.Optional,
			Available:   check.Available,
			Detail:      check.Detail,
		})
	}
	return out
}

// BuildSystemChecks summarizes daemon, API and directory readiness.
func BuildSystemChecks(cfg *config.Config, daemon api.DaemonStatus) []StatusLine {
	lines := make([]StatusLine, 0, 5)
	if daemon.Running {
		lines = append(lines, StatusLine{Label: "Daemon", Severity: "ok", Detail: fmt.Sprintf("Running (pid %d)", daemon.PID)})
	} else {
		lines = append(lines, StatusLine{Label: "Daemon", Severity: "warn", Detail: "Not running (run `streamkeeper daemon start`)"})
	}

	switch {
	case strings.TrimSpace(cfg.Paths.APIBind) == "":
		lines = append(lines, StatusLine{Label: "HTTP API", Severity: "info", Detail: "Disabled"})
	case daemon.APIAddress != "":
		detail := "http://" + daemon.APIAddress
		if cfg.Paths.APIToken != "" {
			detail += " (token required)"
		}
		lines = append(lines, StatusLine{Label: "HTTP API", Severity: "ok", Detail: detail})
	default:
		lines = append(lines, StatusLine{Label: "HTTP API", Severity: "info", Detail: "Configured at " + cfg.Paths.APIBind})
	}

	for _, dir := range []struct {
		label string
		path  string
	}{
		{label: "Recordings", path: cfg.Paths.RecordingsDir},
		{label: "Snapshots", path: cfg.Paths.SnapshotDir},
	} {
		lines = append(lines, directoryCheck(dir.label, dir.path))
	}

	if topic := cfg.Notifications.NtfyTopic; topic != "" {
		lines = append(lines, StatusLine{Label: "Notifications", Severity: "ok", Detail: "ntfy " + topic})
	} else {
		lines = append(lines, StatusLine{Label: "Notifications", Severity: "info", Detail: "Disabled"})
	}
	return lines
}

func directoryCheck(label, path string) StatusLine {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return StatusLine{Label: label, Severity: "warn", Detail: path + " (missing, created on daemon start)"}
	case err != nil:
		return StatusLine{Label: label, Severity: "error", Detail: err.Error()}
	case !info.IsDir():
		return StatusLine{Label: label, Severity: "error", Detail: path + " is not a directory"}
	}
	return StatusLine{Label: label, Severity: "ok", Detail: path}
}

// BuildDependencySummary computes aggregate dependency readiness.
func BuildDependencySummary(statuses []api.DependencyStatus) DependencySummary {
	if len(statuses) == 0 {
		return DependencySummary{Severity: "info", Detail: "No dependency checks configured"}
	}
	summary := DependencySummary{Total: len(statuses)}
	for _, dep := range statuses {
		switch {
		case dep.Available:
			summary.Available++
		case dep.Optional:
			summary.MissingOptional++
		default:
			summary.MissingRequired++
		}
	}
	summary.Severity = "ok"
	summary.Detail = fmt.Sprintf("%d/%d available", summary.Available, summary.Total)
	if summary.MissingRequired > 0 || summary.MissingOptional > 0 {
		summary.Severity = "warn"
		if summary.MissingRequired > 0 {
			summary.Severity = "error"
		}
		summary.Detail = fmt.Sprintf("%s (missing: %d required, %d optional)",
			summary.Detail, summary.MissingRequired, summary.MissingOptional)
	}
	return summary
}

// Severity maps a dependency to ok, warn or error.
func Severity(dep api.DependencyStatus) string {
	switch {
	case dep.Available:
		return "ok"
	case dep.Optional:
		return "warn"
	default:
		return "error"
	}
}

func isDaemonUnavailable(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
