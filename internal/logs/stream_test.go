package logs_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"streamkeeper/internal/api"
	"streamkeeper/internal/logging"
	"streamkeeper/internal/logs"
)

func TestNewStreamClientEmptyBind(t *testing.T) {
	client, err := logs.NewStreamClient("", "")
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}
	if client != nil {
		t.Fatal("expected nil client for empty bind")
	}
}

func TestStreamClientFetchSendsQueryAndToken(t *testing.T) {
	var (
		gotQuery url.Values
		gotAuth  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.LogsResponse{
			Events: []logging.LogEvent{{Sequence: 7, Level: "info", Message: "hello"}},
			Next:   7,
		})
	}))
	defer srv.Close()

	client, err := logs.NewStreamClient(srv.URL, "secret")
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}
	resp, err := client.Fetch(context.Background(), logs.StreamQuery{Since: 3, Limit: 50, Follow: true})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(resp.Events) != 1 || resp.Next != 7 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotQuery.Get("since") != "3" || gotQuery.Get("limit") != "50" || gotQuery.Get("follow") != "1" {
		t.Fatalf("unexpected query %v", gotQuery)
	}
}

func TestStreamPassesStreamerFilterToAPI(t *testing.T) {
	var gotStreamer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStreamer = r.URL.Query().Get("streamer")
		_ = json.NewEncoder(w).Encode(api.LogsResponse{
			Events: []logging.LogEvent{{Sequence: 1, Message: "a", Streamer: "alice"}},
			Next:   2,
		})
	}))
	defer srv.Close()
	client, _ := logs.NewStreamClient(srv.URL, "")

	var got []string
	printed, err := logs.Stream(context.Background(), client, nil, logs.Options{Lines: 10, Streamer: " Alice "},
		func(evt logging.LogEvent) { got = append(got, evt.Message) }, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if gotStreamer != "alice" {
		t.Fatalf("expected normalized streamer query, got %q", gotStreamer)
	}
	if !printed || len(got) != 1 || got[0] != "a" {
		t.Fatalf("unexpected events %v", got)
	}
}

type fakeTail struct {
	calls []logs.TailOptions
}

func (f *fakeTail) Tail(opts logs.TailOptions) (logs.TailResult, error) {
	f.calls = append(f.calls, opts)
	return logs.TailResult{Lines: []string{"line one", "line two"}, Offset: 42}, nil
}

func TestStreamFallsBackToFileTail(t *testing.T) {
	tail := &fakeTail{}
	var lines []string
	printed, err := logs.Stream(context.Background(), nil, tail, logs.Options{Lines: 2}, nil,
		func(line string) { lines = append(lines, line) })
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !printed || len(lines) != 2 {
		t.Fatalf("unexpected lines %v", lines)
	}
	if len(tail.calls) != 1 || tail.calls[0].Offset != -1 || tail.calls[0].Limit != 2 {
		t.Fatalf("unexpected tail calls %+v", tail.calls)
	}
}

func TestStreamFilterWithoutAPI(t *testing.T) {
	_, err := logs.Stream(context.Background(), nil, &fakeTail{}, logs.Options{Streamer: "alice"}, nil, nil)
	if !errors.Is(err, logs.ErrFilterRequiresAPI) {
		t.Fatalf("expected ErrFilterRequiresAPI, got %v", err)
	}
}

func TestIsAPIUnavailable(t *testing.T) {
	if !logs.IsAPIUnavailable(logs.ErrAPIUnavailable) {
		t.Fatal("expected ErrAPIUnavailable to be unavailable")
	}
	if logs.IsAPIUnavailable(errors.New("other")) {
		t.Fatal("did not expect generic error to be unavailable")
	}
}
