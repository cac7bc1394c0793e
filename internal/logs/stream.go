package logs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"streamkeeper/internal/logging"
)

// ErrFilterRequiresAPI is returned when a streamer filter is requested but
// only the plain log file is reachable.
var ErrFilterRequiresAPI = errors.New("streamer filter requires API access")

const followBatch = 200

// TailClient tails the daemon log file remotely.
type TailClient interface {
	Tail(opts TailOptions) (TailResult, error)
}

// Options controls Stream.
type Options struct {
	Lines    int
	Follow   bool
	Streamer string
}

// Stream emits structured events from the API when available and falls back
// to raw log lines over IPC. It reports whether anything was emitted.
func Stream(
	ctx context.Context,
	apiClient *StreamClient,
	fallback TailClient,
	opts Options,
	onEvent func(logging.LogEvent),
	onLine func(string),
) (bool, error) {
	printed, err := streamAPI(ctx, apiClient, opts, onEvent)
	if err == nil || !IsAPIUnavailable(err) {
		return printed, err
	}
	if strings.TrimSpace(opts.Streamer) != "" {
		return false, fmt.Errorf("%w: %w", ErrFilterRequiresAPI, ErrAPIUnavailable)
	}
	if fallback == nil {
		return false, ErrAPIUnavailable
	}
	return streamFile(ctx, fallback, opts, onLine)
}

func streamAPI(ctx context.Context, client *StreamClient, opts Options, onEvent func(logging.LogEvent)) (bool, error) {
	query := StreamQuery{Limit: opts.Lines, Streamer: strings.ToLower(strings.TrimSpace(opts.Streamer))}
	if query.Limit <= 0 {
		query.Limit = followBatch
	}

	printed := false
	for {
		resp, err := client.Fetch(ctx, query)
		if err != nil {
			if printed && ctx.Err() != nil {
				return printed, nil
			}
			return printed, err
		}
		for _, evt := range resp.Events {
			if onEvent != nil {
				onEvent(evt)
			}
			printed = true
		}
		if !opts.Follow {
			return printed, nil
		}
		if resp.Next > query.Since {
			query.Since = resp.Next
		}
		query.Limit = followBatch
		query.Follow = true
	}
}

func streamFile(ctx context.Context, client TailClient, opts Options, onLine func(string)) (bool, error) {
	req := TailOptions{Offset: -1, Limit: max(opts.Lines, 0), Follow: opts.Follow, Wait: time.Second}
	if req.Limit == 0 {
		req.Offset = 0
	}
	printed := false
	for {
		resp, err := client.Tail(req)
		if err != nil {
			return printed, fmt.Errorf("tail logs: %w", err)
		}
		for _, line := range resp.Lines {
			if onLine != nil {
				onLine(line)
			}
			printed = true
		}
		if !opts.Follow {
			return printed, nil
		}
		req.Offset = resp.Offset
		req.Limit = 0
		select {
		case <-ctx.Done():
			return printed, nil
		default:
		}
	}
}
