package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"streamkeeper/internal/api"
	"streamkeeper/internal/capture"
	"streamkeeper/internal/config"
	"streamkeeper/internal/deps"
	"streamkeeper/internal/logging"
	"streamkeeper/internal/monitor"
	"streamkeeper/internal/notifications"
	"streamkeeper/internal/recordings"
	"streamkeeper/internal/site"
	"streamkeeper/internal/watchlist"
)

// Daemon owns the monitor and its supporting services and enforces
// single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *watchlist.Store
	sites      *site.Registry
	supervisor *capture.Supervisor
	monitor    *monitor.Monitor
	library    *recordings.Library
	service    *api.Service
	api        *apiServer
	logPath    string
	logHub     *logging.StreamHub

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	depsMu       sync.Mutex
	dependencies []deps.Status

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// Options supplies optional collaborators. Zero values select the production
// implementations built from the configuration.
type Options struct {
	LogPath  string
	LogHub   *logging.StreamHub
	Sites    *site.Registry
	Recorder monitor.Recorder
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	SocketPath   string
	APIAddress   string
	LogPath      string
	Streamers    int
	Monitoring   int
	Recording    int
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *watchlist.Store, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, watchlist store, and logger")
	}

	sites := opts.Sites
	if sites == nil {
		sites = site.NewConfiguredRegistry(cfg, logger)
	}
	supervisor := capture.NewSupervisor(capture.OptionsFromConfig(cfg, logger))
	recorder := opts.Recorder
	if recorder == nil {
		recorder = monitor.SupervisorRecorder{Supervisor: supervisor}
	}
	mon := monitor.New(sites, recorder, monitor.Options{
		CheckInterval: cfg.CheckInterval(),
		Logger:        logger,
		Notifier:      notifications.NewService(cfg),
	})
	library := recordings.FromConfig(cfg, logger)
	service := api.NewService(mon, store, library, api.ServiceOptions{
		SnapshotDir: cfg.Paths.SnapshotDir,
		StartOnAdd:  cfg.Monitor.StartOnAdd,
		Logger:      logger,
	})

	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		sites:      sites,
		supervisor: supervisor,
		monitor:    mon,
		library:    library,
		service:    service,
		logPath:    opts.LogPath,
		logHub:     opts.LogHub,
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
		shutdown:   make(chan struct{}),
	}
	d.api = newAPIServer(cfg, service, library, opts.LogHub, logger)
	return d, nil
}

// Start acquires the daemon lock, loads the watchlist into the monitor and
// serves the dashboard API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another streamkeeper daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	loaded, err := d.loadWatchlist(d.ctx)
	if err != nil {
		d.abortStart()
		return fmt.Errorf("load watchlist: %w", err)
	}
	started := 0
	if d.cfg.Monitor.AutoStart {
		started = d.monitor.StartAll()
	}
	if err := d.api.start(d.ctx); err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), d.stopBudget())
		_, _ = d.monitor.StopAll(stopCtx)
		cancel()
		d.abortStart()
		return err
	}

	d.refreshDependencies(d.ctx)
	d.running.Store(true)
	d.logger.Info("streamkeeper daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.Int("streamers_loaded", loaded),
		logging.Int("streamers_started", started),
		logging.String("api_address", d.api.address()),
	)
	return nil
}

// Stop ends monitoring, waits for captures to finalize and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), d.stopBudget())
	defer cancel()
	if _, err := d.monitor.StopAll(stopCtx); err != nil {
		logging.WarnWithContext(d.logger, "streamers did not stop in time", "daemon_stop_timeout",
			logging.Error(err),
			logging.String(logging.FieldImpact, "some captures may have been killed rather than finalized"),
		)
	}
	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.supervisor.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("streamkeeper daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close stops the daemon, shuts the monitor down and closes the watchlist.
func (d *Daemon) Close() error {
	d.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), d.stopBudget())
	defer cancel()
	shutdownErr := d.monitor.Shutdown(ctx)
	if d.store != nil {
		return errors.Join(shutdownErr, d.store.Close())
	}
	return shutdownErr
}

// Service returns the operations shared by the HTTP API and IPC.
func (d *Daemon) Service() *api.Service {
	return d.service
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// LogStream returns the in-memory log hub, if configured.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.logHub
}

// RequestShutdown asks the hosting process to exit. Safe to call repeatedly.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() {
		d.logger.Info("daemon shutdown requested", logging.String(logging.FieldEventType, "daemon_shutdown_requested"))
		close(d.shutdown)
	})
}

// ShutdownRequested is closed once RequestShutdown has been called.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdown
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		SocketPath:   d.cfg.SocketPath(),
		APIAddress:   d.api.address(),
		LogPath:      d.logPath,
	}
	for _, st := range d.monitor.Snapshot() {
		status.Streamers++
		if st.Monitoring {
			status.Monitoring++
		}
		if st.Recording {
			status.Recording++
		}
	}
	d.depsMu.Lock()
	status.Dependencies = append([]deps.Status(nil), d.dependencies...)
	d.depsMu.Unlock()
	if len(status.Dependencies) == 0 {
		status.Dependencies = d.refreshDependencies(ctx)
	}
	return status
}

func (d *Daemon) loadWatchlist(ctx context.Context) (int, error) {
	entries, err := d.store.List(ctx)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, entry := range entries {
		err := d.monitor.Add(entry.Username, entry.Site)
		switch {
		case err == nil:
			loaded++
		case errors.Is(err, monitor.ErrDuplicateStreamer):
			// Already registered by an earlier Start.
		default:
			logging.WarnWithContext(d.logger, "skipping watchlist entry", "watchlist_entry_skipped",
				logging.String(logging.FieldStreamer, entry.Username),
				logging.String(logging.FieldSite, entry.Site),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the entry or enable its site"),
			)
		}
	}
	return loaded, nil
}

func (d *Daemon) refreshDependencies(ctx context.Context) []deps.Status {
	statuses := deps.CheckCapture(ctx, d.cfg)
	for _, missing := range deps.MissingRequired(statuses) {
		logging.WarnWithContext(d.logger, "required dependency missing", "dependency_missing",
			logging.String("dependency", missing.Name),
			logging.String("command", missing.Command),
			logging.String(logging.FieldImpact, "captures cannot start"),
			logging.String(logging.FieldErrorHint, "install ffmpeg or set capture.ffmpeg_binary"),
		)
	}
	d.depsMu.Lock()
	d.dependencies = statuses
	d.depsMu.Unlock()
	return append([]deps.Status(nil), statuses...)
}

func (d *Daemon) abortStart() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
	_ = d.lock.Unlock()
}

// stopBudget covers one graceful stop per capture plus the forced kill path.
func (d *Daemon) stopBudget() time.Duration {
	return d.cfg.StopTimeout() + 15*time.Second
}
