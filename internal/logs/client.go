package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"streamkeeper/internal/api"
)

// ErrAPIUnavailable reports that the daemon HTTP API is disabled or unreachable.
var ErrAPIUnavailable = errors.New("log API unavailable")

// StreamClient polls the daemon's /api/logs endpoint.
type StreamClient struct {
	base  *url.URL
	token string
	http  *http.Client
}

// StreamQuery maps onto the /api/logs query string.
type StreamQuery struct {
	Since    uint64
	Limit    int
	Follow   bool
	Streamer string
}

// NewStreamClient returns nil when bind is empty.
func NewStreamClient(bind, token string) (*StreamClient, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	// Follow requests block server side; callers bound them with ctx.
	return &StreamClient{base: base, token: strings.TrimSpace(token), http: &http.Client{}}, nil
}

// Fetch performs one /api/logs request.
func (c *StreamClient) Fetch(ctx context.Context, q StreamQuery) (api.LogsResponse, error) {
	if c == nil {
		return api.LogsResponse{}, ErrAPIUnavailable
	}
	values := url.Values{}
	if q.Since > 0 {
		values.Set("since", strconv.FormatUint(q.Since, 10))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
	}
	if q.Streamer != "" {
		values.Set("streamer", q.Streamer)
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: "/api/logs", RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return api.LogsResponse{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return api.LogsResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return api.LogsResponse{}, fmt.Errorf("api logs returned status %d", resp.StatusCode)
	}

	var payload api.LogsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return api.LogsResponse{}, err
	}
	return payload, nil
}

// IsAPIUnavailable reports whether err means the API could not be reached.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
