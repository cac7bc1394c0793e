package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"streamkeeper/internal/api"
	"streamkeeper/internal/config"
	"streamkeeper/internal/logging"
	"streamkeeper/internal/recordings"
	"streamkeeper/internal/services"
	"streamkeeper/internal/textutil"
)

const (
	maxRequestBody   = 64 << 10
	defaultLogLimit  = 200
	logFollowTimeout = 25 * time.Second
	requestIDHeader  = "X-Request-ID"
)

type apiServer struct {
	bind        string
	logger      *slog.Logger
	svc         *api.Service
	library     *recordings.Library
	hub         *logging.StreamHub
	snapshotDir string
	handler     http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, svc *api.Service, library *recordings.Library, hub *logging.StreamHub, logger *slog.Logger) *apiServer {
	if cfg == nil || svc == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	srv := &apiServer{
		bind:        bind,
		logger:      logger.With(logging.String(logging.FieldComponent, "api-server")),
		svc:         svc,
		library:     library,
		hub:         hub,
		snapshotDir: cfg.Paths.SnapshotDir,
	}

	token := cfg.Paths.APIToken
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, false, srv.handleStatus))
	mux.HandleFunc("/api/recordings", authMiddleware(token, false, srv.handleRecordings))
	mux.HandleFunc("/api/add", authMiddleware(token, false, srv.handleAction(srv.svc.Add)))
	mux.HandleFunc("/api/remove", authMiddleware(token, false, srv.handleAction(srv.svc.Remove)))
	mux.HandleFunc("/api/start", authMiddleware(token, false, srv.handleAction(srv.svc.Start)))
	mux.HandleFunc("/api/stop", authMiddleware(token, false, srv.handleAction(srv.svc.Stop)))
	mux.HandleFunc("/api/delete", authMiddleware(token, false, srv.handleDelete))
	mux.HandleFunc("/api/video/{path...}", authMiddleware(token, true, srv.handleMedia(false)))
	mux.HandleFunc("/api/download/{path...}", authMiddleware(token, true, srv.handleMedia(true)))
	mux.HandleFunc("/api/logs", authMiddleware(token, false, srv.handleLogs))
	mux.HandleFunc(api.SnapshotURLPrefix+"{name}", srv.handleSnapshot)
	srv.handler = srv.withRequestID(mux)
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// Video responses stream without a write deadline.
	}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
}

func (s *apiServer) address() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := services.WithRequestID(r.Context(), id)
		started := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		logging.WithContext(ctx, s.logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("elapsed", time.Since(started)),
		)
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.svc.Status(r.Context()))
}

func (s *apiServer) handleRecordings(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	probe := truthy(r.URL.Query().Get("probe"))
	resp, err := s.svc.Recordings(r.Context(), probe)
	if err != nil {
		s.writeError(w, services.HTTPStatus(err), services.Message(err))
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type actionFunc func(context.Context, api.ActionRequest) (api.ActionResponse, error)

func (s *apiServer) handleAction(action actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.allow(w, r, http.MethodPost) {
			return
		}
		var req api.ActionRequest
		if !s.decode(w, r, &req) {
			return
		}
		ctx := services.WithSite(services.WithStreamer(r.Context(), req.Username), req.Site)
		resp, err := action(ctx, req)
		s.writeAction(w, resp, err)
	}
}

func (s *apiServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req api.DeleteRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.svc.Delete(r.Context(), req)
	s.writeAction(w, resp, err)
}

func (s *apiServer) handleMedia(attachment bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.allow(w, r, http.MethodGet, http.MethodHead) {
			return
		}
		if s.library == nil {
			s.writeError(w, http.StatusNotFound, "recording not found")
			return
		}
		full, err := s.library.Resolve(r.PathValue("path"))
		if err != nil {
			s.writeError(w, services.HTTPStatus(err), services.Message(err))
			return
		}
		s.serveFile(w, r, full, attachment)
	}
}

func (s *apiServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	name := r.PathValue("name")
	username, ok := strings.CutSuffix(name, ".jpg")
	if normalized, valid := textutil.NormalizeUsername(username); !ok || !valid || normalized != username {
		s.writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	s.serveFile(w, r, filepath.Join(s.snapshotDir, name), false)
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	if s.hub == nil {
		s.writeJSON(w, http.StatusOK, api.LogsResponse{Events: []logging.LogEvent{}})
		return
	}
	query := r.URL.Query()
	q := logging.EventQuery{
		Streamer: strings.TrimSpace(query.Get("streamer")),
		Site:     strings.TrimSpace(query.Get("site")),
		Wait:     truthy(query.Get("follow")),
	}
	q.Since, _ = strconv.ParseUint(query.Get("since"), 10, 64)
	q.Limit, _ = strconv.Atoi(query.Get("limit"))
	if q.Limit <= 0 {
		q.Limit = defaultLogLimit
	}

	var (
		events []logging.LogEvent
		next   uint64
	)
	if q.Since == 0 && !q.Wait {
		events, next = s.hub.Tail(q)
	} else {
		ctx := r.Context()
		if q.Wait {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, logFollowTimeout)
			defer cancel()
		}
		var err error
		events, next, err = s.hub.Fetch(ctx, q)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if events == nil {
		events = []logging.LogEvent{}
	}
	s.writeJSON(w, http.StatusOK, api.LogsResponse{Events: events, Next: next})
}

func (s *apiServer) serveFile(w http.ResponseWriter, r *http.Request, path string, attachment bool) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.writeError(w, http.StatusNotFound, "file not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if ct := contentType(info.Name()); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if attachment {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name()}))
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *apiServer) allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, method := range methods {
		if r.Method == method {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, api.ActionResponse{Success: false, Message: "invalid request body"})
		return false
	}
	return true
}

func (s *apiServer) writeAction(w http.ResponseWriter, resp api.ActionResponse, err error) {
	if err != nil {
		if resp.Message == "" {
			resp.Message = services.Message(err)
		}
		s.writeJSON(w, services.HTTPStatus(err), resp)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

var captureContentTypes = map[string]string{
	".mp4": "video/mp4",
	".mkv": "video/x-matroska",
	".ts":  "video/mp2t",
	".jpg": "image/jpeg",
}

func contentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := captureContentTypes[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}

func truthy(value string) bool {
	value = strings.TrimSpace(value)
	return value == "1" || strings.EqualFold(value, "true") || strings.EqualFold(value, "yes")
}
