package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"streamkeeper/internal/capture"
	"streamkeeper/internal/logging"
	"streamkeeper/internal/monitor"
	"streamkeeper/internal/recordings"
	"streamkeeper/internal/services"
	"streamkeeper/internal/site"
	"streamkeeper/internal/textutil"
)

// SnapshotURLPrefix is where the dashboard serves per-user preview images.
const SnapshotURLPrefix = "/static/users/"

// Registry is the subset of the monitor the front ends drive.
type Registry interface {
	Add(username, site string) error
	Remove(ctx context.Context, username, site string) (int, error)
	Start(username, site string) (int, error)
	Stop(ctx context.Context, username, site string) (int, error)
	Snapshot() []monitor.StreamerStatus
	Lookup(username, site string) (monitor.StreamerStatus, bool)
}

// Watchlist persists the streamer list.
type Watchlist interface {
	Add(ctx context.Context, username, site string) (bool, error)
	Remove(ctx context.Context, username, site string) (int64, error)
}

// Library exposes the recordings directory.
type Library interface {
	List(ctx context.Context, opts recordings.ListOptions) ([]recordings.Recording, error)
	Count() (int, error)
	Delete(rel string) error
}

// ServiceOptions tunes Service behaviour.
type ServiceOptions struct {
	SnapshotDir string
	StartOnAdd  bool
	Logger      *slog.Logger
}

// Service implements the operations shared by the HTTP API and IPC.
type Service struct {
	registry    Registry
	watchlist   Watchlist
	library     Library
	snapshotDir string
	startOnAdd  bool
	logger      *slog.Logger
}

// NewService wires a Service. watchlist and library may be nil.
func NewService(registry Registry, watchlist Watchlist, library Library, opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		registry:    registry,
		watchlist:   watchlist,
		library:     library,
		snapshotDir: opts.SnapshotDir,
		startOnAdd:  opts.StartOnAdd,
		logger:      logger.With(logging.String(logging.FieldComponent, "api")),
	}
}

// Status returns dashboard totals and every streamer in registration order.
func (s *Service) Status(ctx context.Context) StatusResponse {
	snapshot := s.registry.Snapshot()
	resp := StatusResponse{
		TotalStreamers: len(snapshot),
		Streamers:      make([]StreamerStatus, 0, len(snapshot)),
	}
	for _, st := range snapshot {
		if st.Online {
			resp.OnlineStreamers++
		}
		if st.Recording {
			resp.ActiveRecordings++
		}
		resp.Streamers = append(resp.Streamers, FromStreamerStatus(st, s.snapshotURL(st.Username)))
	}
	if s.library != nil {
		count, err := s.library.Count()
		if err != nil {
			logging.WithContext(ctx, s.logger).Warn("count recordings failed", logging.Error(err))
		}
		resp.TotalFiles = count
	}
	return resp
}

// Recordings lists capture artifacts, largest first.
func (s *Service) Recordings(ctx context.Context, probe bool) (RecordingsResponse, error) {
	if s.library == nil {
		return RecordingsResponse{Recordings: []Recording{}}, nil
	}
	items, err := s.library.List(ctx, recordings.ListOptions{Probe: probe})
	if err != nil {
		return RecordingsResponse{}, err
	}
	return RecordingsResponse{Recordings: FromRecordings(items), Total: len(items)}, nil
}

// Add registers a streamer, persists it and, when configured, starts monitoring.
func (s *Service) Add(ctx context.Context, req ActionRequest) (ActionResponse, error) {
	if strings.TrimSpace(req.Username) == "" {
		return failure(errUsernameRequired("add"))
	}
	if err := s.registry.Add(req.Username, req.Site); err != nil {
		return failure(err)
	}
	st, _ := s.registry.Lookup(req.Username, req.Site)
	if s.watchlist != nil {
		if _, err := s.watchlist.Add(ctx, st.Username, st.Site); err != nil {
			if _, rbErr := s.registry.Remove(ctx, st.Username, st.Site); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
			return failure(services.Wrap(services.ErrTransient, "watchlist", "add", "persist "+st.Key, err))
		}
	}

	message := st.Key + " added"
	started := 0
	if s.startOnAdd {
		n, err := s.registry.Start(st.Username, st.Site)
		if err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "auto-start after add failed", "streamer_autostart_failed",
				logging.String(logging.FieldStreamer, st.Username),
				logging.String(logging.FieldSite, st.Site),
				logging.Error(err),
			)
		}
		started = n
		if n > 0 {
			message += " and monitoring started"
		}
	}
	logging.WithContext(ctx, s.logger).Info("streamer added via api",
		logging.String(logging.FieldStreamer, st.Username),
		logging.String(logging.FieldSite, st.Site),
		logging.Bool("started", started > 0),
	)
	return ActionResponse{Success: true, Message: message, Affected: 1}, nil
}

// Remove unregisters matching streamers (every site when req.Site is empty)
// and drops them from the watchlist.
func (s *Service) Remove(ctx context.Context, req ActionRequest) (ActionResponse, error) {
	name, ok := textutil.NormalizeUsername(req.Username)
	if !ok {
		return failure(errUsernameRequired("remove"))
	}
	tag := site.NormalizeAbbreviation(req.Site)
	if tag == "*" {
		tag = ""
	}
	removed, err := s.registry.Remove(ctx, name, tag)
	if removed == 0 {
		return failure(err)
	}
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "remove did not wait for teardown", "streamer_remove_wait",
			logging.String(logging.FieldStreamer, name),
			logging.Error(err),
		)
	}
	if s.watchlist != nil {
		if _, err := s.watchlist.Remove(ctx, name, tag); err != nil {
			return failure(services.Wrap(services.ErrTransient, "watchlist", "remove", "persist removal of "+name, err))
		}
	}
	return ActionResponse{Success: true, Message: fmt.Sprintf("removed %s", plural(removed, "streamer")), Affected: removed}, nil
}

// Start begins monitoring matching streamers. Username "*" selects everyone.
func (s *Service) Start(_ context.Context, req ActionRequest) (ActionResponse, error) {
	if strings.TrimSpace(req.Username) == "" {
		return failure(errUsernameRequired("start"))
	}
	started, err := s.registry.Start(req.Username, req.Site)
	if err != nil {
		return failure(err)
	}
	if started == 0 {
		return ActionResponse{Success: true, Message: "already monitoring"}, nil
	}
	return ActionResponse{Success: true, Message: fmt.Sprintf("monitoring started for %s", plural(started, "streamer")), Affected: started}, nil
}

// Stop ends monitoring for matching streamers and waits for their teardown.
func (s *Service) Stop(ctx context.Context, req ActionRequest) (ActionResponse, error) {
	if strings.TrimSpace(req.Username) == "" {
		return failure(errUsernameRequired("stop"))
	}
	stopped, err := s.registry.Stop(ctx, req.Username, req.Site)
	if err != nil {
		return failure(err)
	}
	if stopped == 0 {
		return ActionResponse{Success: true, Message: "not monitoring"}, nil
	}
	return ActionResponse{Success: true, Message: fmt.Sprintf("monitoring stopped for %s", plural(stopped, "streamer")), Affected: stopped}, nil
}

// Delete removes one recording.
func (s *Service) Delete(_ context.Context, req DeleteRequest) (ActionResponse, error) {
	if s.library == nil {
		return failure(services.Wrap(services.ErrConfiguration, "recordings", "delete", "recordings library unavailable", nil))
	}
	if err := s.library.Delete(req.Path); err != nil {
		return failure(err)
	}
	return ActionResponse{Success: true, Message: "recording deleted", Affected: 1}, nil
}

func (s *Service) snapshotURL(username string) string {
	if s.snapshotDir == "" {
		return ""
	}
	info, err := os.Stat(capture.SnapshotPath(s.snapshotDir, username))
	if err != nil || info.Size() == 0 {
		return ""
	}
	return SnapshotURLPrefix + username + ".jpg"
}

func failure(err error) (ActionResponse, error) {
	return ActionResponse{Success: false, Message: services.Message(err)}, err
}

func errUsernameRequired(operation string) error {
	return services.Wrap(services.ErrValidation, "api", operation, "username is required", nil)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
