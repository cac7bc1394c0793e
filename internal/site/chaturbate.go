package site

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"streamkeeper/internal/config"
	"streamkeeper/internal/logging"
)

const (
	chaturbateAbbreviation = "CB"
	chaturbateName         = "Chaturbate"
	chaturbateThumbnailURL = "https://roomimg.stream.highwebmedia.com/ri"
	maxContextBody         = 1 << 20
)

// HTTPDoer describes the HTTP client used by site adapters.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChaturbateOptions configures the Chaturbate adapter.
type ChaturbateOptions struct {
	BaseURL        string
	UserAgent      string
	RequestTimeout time.Duration
	ProbeTimeout   time.Duration
	Client         HTTPDoer
	Logger         *slog.Logger
}

// Chaturbate polls the chat video context endpoint for room state and HLS sources.
type Chaturbate struct {
	baseURL        string
	userAgent      string
	requestTimeout time.Duration
	probeTimeout   time.Duration
	client         HTTPDoer
	logger         *slog.Logger
}

type roomContext struct {
	RoomStatus string `json:"room_status"`
	HLSSource  string `json:"hls_source"`
	URL        string `json:"url"`
	CMAFEdge   bool   `json:"cmaf_edge"`
}

func (rc roomContext) source() string {
	if rc.HLSSource != "" {
		return rc.HLSSource
	}
	return rc.URL
}

// NewChaturbate constructs the adapter, filling defaults for zero options.
func NewChaturbate(opts ChaturbateOptions) *Chaturbate {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = "https://chaturbate.com"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 20 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	logger := logging.NewComponentLogger(opts.Logger, "site").With(logging.String(logging.FieldSite, chaturbateAbbreviation))
	return &Chaturbate{
		baseURL:        base,
		userAgent:      strings.TrimSpace(opts.UserAgent),
		requestTimeout: opts.RequestTimeout,
		probeTimeout:   opts.ProbeTimeout,
		client:         opts.Client,
		logger:         logger,
	}
}

// NewConfiguredRegistry returns the registry of adapters enabled by cfg.
func NewConfiguredRegistry(cfg *config.Config, logger *slog.Logger) *Registry {
	opts := ChaturbateOptions{Logger: logger}
	if cfg != nil {
		cb := cfg.Sites.Chaturbate
		opts.BaseURL = cb.BaseURL
		opts.UserAgent = cb.UserAgent
		opts.RequestTimeout = time.Duration(cb.RequestTimeout) * time.Second
		opts.ProbeTimeout = time.Duration(cb.ProbeTimeout) * time.Second
	}
	return NewRegistry(NewChaturbate(opts))
}

func (c *Chaturbate) Abbreviation() string { return chaturbateAbbreviation }

func (c *Chaturbate) Name() string { return chaturbateName }

func (c *Chaturbate) ThumbnailURL(username string) string {
	return fmt.Sprintf("%s/%s.jpg", chaturbateThumbnailURL, url.PathEscape(username))
}

func (c *Chaturbate) ProfileURL(username string) string {
	return fmt.Sprintf("%s/%s/", c.baseURL, url.PathEscape(username))
}

// IsLive reports whether the room is broadcasting with a playable source.
func (c *Chaturbate) IsLive(ctx context.Context, username string) bool {
	room, err := c.fetchContext(ctx, username)
	if err != nil {
		c.warnFailure(username, "room status request failed", err)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(room.RoomStatus)) {
	case "offline", "away":
		return false
	default:
		// public/private/group and unknown statuses alike count as live only with a source.
		return room.source() != ""
	}
}

// MediaLocator resolves the HLS playlist, preferring the CMAF edge when the
// room advertises it.
func (c *Chaturbate) MediaLocator(ctx context.Context, username string) (string, bool) {
	room, err := c.fetchContext(ctx, username)
	if err != nil {
		c.warnFailure(username, "stream locator request failed", err)
		return "", false
	}
	original := room.source()
	if original == "" {
		c.logger.Debug("room has no hls source",
			logging.String(logging.FieldStreamer, username),
			logging.String("room_status", room.RoomStatus),
		)
		return "", false
	}

	rewritten := rewriteLocator(original, room.CMAFEdge)
	if c.probe(ctx, rewritten) {
		return rewritten, true
	}
	if rewritten != original && c.probe(ctx, original) {
		c.logger.Info("using original stream locator",
			logging.String(logging.FieldStreamer, username),
			logging.String(logging.FieldEventType, "locator_fallback"),
		)
		return original, true
	}
	c.logger.Debug("stream locator probe failed; returning rewritten locator",
		logging.String(logging.FieldStreamer, username),
	)
	return rewritten, true
}

func rewriteLocator(source string, cmafEdge bool) string {
	if cmafEdge {
		out := strings.ReplaceAll(source, "live-edge", "live-c-fhls")
		out = strings.ReplaceAll(out, "live-hls", "live-c-fhls")
		return strings.ReplaceAll(out, "playlist.m3u8", "playlist_sfm4s.m3u8")
	}
	return strings.ReplaceAll(source, "live-edge", "live-hls")
}

func (c *Chaturbate) fetchContext(ctx context.Context, username string) (roomContext, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/api/chatvideocontext/%s/", c.baseURL, url.PathEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return roomContext{}, fmt.Errorf("build room context request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return roomContext{}, fmt.Errorf("request room context: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxContextBody))
		return roomContext{}, fmt.Errorf("room context returned %d", resp.StatusCode)
	}

	var room roomContext
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxContextBody)).Decode(&room); err != nil {
		return roomContext{}, fmt.Errorf("decode room context: %w", err)
	}
	return room, nil
}

// probe issues a HEAD request. 200, 302 and 403 count as reachable.
func (c *Chaturbate) probe(ctx context.Context, target string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusFound, http.StatusForbidden:
		return true
	default:
		return false
	}
}

func (c *Chaturbate) setHeaders(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.baseURL+"/")
}

func (c *Chaturbate) warnFailure(username, msg string, err error) {
	logging.WarnWithContext(c.logger, msg, "site_request_failed",
		logging.String(logging.FieldStreamer, username),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check network connectivity and sites.chaturbate.base_url"),
		logging.String(logging.FieldImpact, "streamer treated as offline until the next check"),
	)
}
