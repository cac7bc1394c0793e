package ipc

import "streamkeeper/internal/api"

// ServiceName is the RPC receiver name registered by the server.
const ServiceName = "Streamkeeper"

// StatusRequest fetches the streamer overview.
type StatusRequest struct{}

// StatusResponse mirrors the HTTP status payload.
type StatusResponse = api.StatusResponse

// StreamerStatus mirrors the HTTP streamer DTO.
type StreamerStatus = api.StreamerStatus

// ActionRequest names a streamer (or "*") and an optional site.
type ActionRequest = api.ActionRequest

// ActionResponse reports the outcome of a streamer or file action.
type ActionResponse = api.ActionResponse

// RecordingsRequest lists the recordings library.
type RecordingsRequest struct {
	Probe bool `json:"probe"`
}

// RecordingsResponse mirrors the HTTP recordings payload.
type RecordingsResponse = api.RecordingsResponse

// DeleteRequest removes a recording by library-relative path.
type DeleteRequest = api.DeleteRequest

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Accepted bool `json:"accepted"`
}

// DaemonRequest fetches daemon runtime details.
type DaemonRequest struct{}

// DaemonResponse mirrors the daemon status DTO.
type DaemonResponse = api.DaemonStatus

// DependencyStatus describes availability of an external binary.
type DependencyStatus = api.DependencyStatus

// LogTailRequest fetches daemon log file lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
