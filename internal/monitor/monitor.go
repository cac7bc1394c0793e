package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"streamkeeper/internal/logging"
	"streamkeeper/internal/notifications"
	"streamkeeper/internal/site"
	"streamkeeper/internal/textutil"
)

// DefaultCheckInterval is used when Options.CheckInterval is not positive.
const DefaultCheckInterval = 60 * time.Second

// Options configures a Monitor.
type Options struct {
	CheckInterval time.Duration
	Logger        *slog.Logger
	Notifier      notifications.Service
}

// Monitor is the registry of watched streamers and the owner of their poll goroutines.
type Monitor struct {
	sites    *site.Registry
	recorder Recorder
	interval time.Duration
	logger   *slog.Logger
	notifier notifications.Service
	now      func() time.Time

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu        sync.Mutex
	streamers map[string]*streamer
	order     []string
	closed    bool
}

// New constructs an empty monitor.
func New(sites *site.Registry, recorder Recorder, opts Options) *Monitor {
	interval := opts.CheckInterval
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		sites:      sites,
		recorder:   recorder,
		interval:   interval,
		logger:     logging.NewComponentLogger(opts.Logger, "monitor"),
		notifier:   opts.Notifier,
		now:        time.Now,
		baseCtx:    ctx,
		baseCancel: cancel,
		streamers:  make(map[string]*streamer),
	}
}

// Add registers an idle streamer.
func (m *Monitor) Add(username, siteAbbrev string) error {
	name, ok := textutil.NormalizeUsername(username)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	adapter, err := m.sites.Lookup(siteAbbrev)
	if err != nil {
		return err
	}
	tag := site.NormalizeAbbreviation(adapter.Abbreviation())
	key := streamerKey(name, tag)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, exists := m.streamers[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStreamer, key)
	}
	m.streamers[key] = &streamer{key: key, username: name, site: adapter, siteTag: tag}
	m.order = append(m.order, key)
	m.logger.Info("streamer added",
		logging.String(logging.FieldStreamer, name),
		logging.String(logging.FieldSite, tag),
		logging.String(logging.FieldEventType, "streamer_added"),
	)
	return nil
}

// Remove unlinks every matching streamer (all sites when siteAbbrev is empty)
// and waits until their poll goroutines, and any capture they ran, are gone.
func (m *Monitor) Remove(ctx context.Context, username, siteAbbrev string) (int, error) {
	name, tag, err := m.normalizeQuery(username, siteAbbrev)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	var (
		removed []*streamer
		waits   []chan struct{}
	)
	kept := m.order[:0]
	for _, key := range m.order {
		s := m.streamers[key]
		if !s.matches(name, tag) {
			kept = append(kept, key)
			continue
		}
		delete(m.streamers, key)
		removed = append(removed, s)
		if cancel, done, _ := s.stopHandle(); done != nil {
			cancel()
			waits = append(waits, done)
		}
	}
	m.order = kept
	m.mu.Unlock()

	if len(removed) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownStreamer, describeQuery(name, tag))
	}
	for _, s := range removed {
		m.logger.Info("streamer removed",
			logging.String(logging.FieldStreamer, s.username),
			logging.String(logging.FieldSite, s.siteTag),
			logging.String(logging.FieldEventType, "streamer_removed"),
		)
	}
	return len(removed), awaitAll(ctx, waits)
}

// Start launches poll goroutines for matching streamers that are not already
// monitoring. username "*" matches everyone. It returns how many were started.
func (m *Monitor) Start(username, siteAbbrev string) (int, error) {
	name, tag, err := m.normalizeQuery(username, siteAbbrev)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	matched, started, stopping := 0, 0, 0
	for _, key := range m.order {
		s := m.streamers[key]
		if !s.matches(name, tag) {
			continue
		}
		matched++
		switch launched, err := m.launchLocked(s); {
		case launched:
			started++
		case errors.Is(err, ErrStopping):
			stopping++
		}
	}
	if matched == 0 && name != "*" {
		return 0, fmt.Errorf("%w: %s", ErrUnknownStreamer, describeQuery(name, tag))
	}
	if started == 0 && stopping > 0 && name != "*" {
		return 0, fmt.Errorf("%w: %s", ErrStopping, describeQuery(name, tag))
	}
	return started, nil
}

// StartAll starts every registered streamer that is not monitoring.
func (m *Monitor) StartAll() int {
	n, _ := m.Start("*", "")
	return n
}

// Stop cancels matching poll goroutines and waits for their teardown, bounded
// by ctx. It returns how many streamers this call stopped.
func (m *Monitor) Stop(ctx context.Context, username, siteAbbrev string) (int, error) {
	name, tag, err := m.normalizeQuery(username, siteAbbrev)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	matched, stopped := 0, 0
	var waits []chan struct{}
	for _, key := range m.order {
		s := m.streamers[key]
		if !s.matches(name, tag) {
			continue
		}
		matched++
		cancel, done, first := s.stopHandle()
		if done == nil {
			continue
		}
		if first {
			stopped++
		}
		cancel()
		waits = append(waits, done)
	}
	m.mu.Unlock()

	if matched == 0 && name != "*" {
		return 0, fmt.Errorf("%w: %s", ErrUnknownStreamer, describeQuery(name, tag))
	}
	return stopped, awaitAll(ctx, waits)
}

// StopAll stops every monitoring streamer.
func (m *Monitor) StopAll(ctx context.Context) (int, error) {
	return m.Stop(ctx, "*", "")
}

// Snapshot returns every streamer's status in insertion order.
func (m *Monitor) Snapshot() []StreamerStatus {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StreamerStatus, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.streamers[key].status(now))
	}
	return out
}

// Lookup returns the status of one streamer.
func (m *Monitor) Lookup(username, siteAbbrev string) (StreamerStatus, bool) {
	name, ok := textutil.NormalizeUsername(username)
	if !ok {
		return StreamerStatus{}, false
	}
	tag := site.NormalizeAbbreviation(siteAbbrev)
	if tag == "" {
		if def := m.sites.Default(); def != nil {
			tag = site.NormalizeAbbreviation(def.Abbreviation())
		}
	}
	m.mu.Lock()
	s, ok := m.streamers[streamerKey(name, tag)]
	m.mu.Unlock()
	if !ok {
		return StreamerStatus{}, false
	}
	return s.status(m.now()), true
}

// Len reports the number of registered streamers.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.streamers)
}

// Shutdown rejects further mutations, stops every streamer and waits for all
// poll goroutines to exit.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	_, stopErr := m.StopAll(ctx)
	m.baseCancel()

	finished := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return stopErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// launchLocked starts the poll goroutine. Callers hold m.mu. A streamer whose
// teardown is still running reports ErrStopping.
func (m *Monitor) launchLocked(s *streamer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.monitoring {
		if s.stopRequested {
			return false, ErrStopping
		}
		return false, nil
	}
	ctx, cancel := context.WithCancel(m.baseCtx)
	done := make(chan struct{})
	s.monitoring = true
	s.everStarted = true
	s.stopRequested = false
	s.cancel = cancel
	s.done = done

	m.wg.Add(1)
	go m.run(ctx, s, done)
	return true, nil
}

func (m *Monitor) normalizeQuery(username, siteAbbrev string) (string, string, error) {
	tag := site.NormalizeAbbreviation(siteAbbrev)
	if tag == "*" {
		tag = ""
	}
	if username == "*" {
		return "*", tag, nil
	}
	name, ok := textutil.NormalizeUsername(username)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	return name, tag, nil
}

func describeQuery(username, tag string) string {
	if tag == "" {
		return username
	}
	return streamerKey(username, tag)
}

func awaitAll(ctx context.Context, waits []chan struct{}) error {
	for _, done := range waits {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
