package api

import "streamkeeper/internal/logging"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// StreamerStatus describes one watched streamer in a transport-friendly format.
type StreamerStatus struct {
	Username        string  `json:"username"`
	Site            string  `json:"site"`
	IsOnline        bool    `json:"is_online"`
	IsRecording     bool    `json:"is_recording"`
	IsMonitoring    bool    `json:"is_monitoring"`
	State           string  `json:"state"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	CheckCount      int     `json:"check_count"`
	LastCheck       string  `json:"last_check,omitempty"`
	RecordingSince  string  `json:"recording_since,omitempty"`
	OutputPath      string  `json:"output_path,omitempty"`
	Thumbnail       string  `json:"thumbnail"`
	ProfileURL      string  `json:"profile_url"`
}

// StatusResponse is the dashboard overview.
type StatusResponse struct {
	TotalStreamers   int              `json:"total_streamers"`
	OnlineStreamers  int              `json:"online_streamers"`
	ActiveRecordings int              `json:"active_recordings"`
	TotalFiles       int              `json:"total_files"`
	Streamers        []StreamerStatus `json:"streamers"`
}

// Recording describes one capture artifact.
type Recording struct {
	Path            string  `json:"path"`
	Filename        string  `json:"filename"`
	Username        string  `json:"username"`
	Site            string  `json:"site"`
	Date            string  `json:"date"`
	SizeBytes       int64   `json:"size_bytes"`
	Size            string  `json:"size"`
	ModifiedAt      string  `json:"modified_at,omitempty"`
	Duration        string  `json:"duration,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Resolution      string  `json:"resolution,omitempty"`
}

// RecordingsResponse wraps the recordings list.
type RecordingsResponse struct {
	Recordings []Recording `json:"recordings"`
	Total      int         `json:"total"`
}

// ActionRequest targets streamers by username and optional site. Username "*"
// selects everyone for start and stop.
type ActionRequest struct {
	Username string `json:"username"`
	Site     string `json:"site,omitempty"`
}

// DeleteRequest names a recording relative to the recordings directory.
type DeleteRequest struct {
	Path string `json:"path"`
}

// ActionResponse is the envelope returned by every mutation.
type ActionResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Affected int    `json:"affected,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	DatabasePath string             `json:"database_path"`
	LockFilePath string             `json:"lock_file_path"`
	SocketPath   string             `json:"socket_path"`
	APIAddress   string             `json:"api_address,omitempty"`
	LogPath      string             `json:"log_path,omitempty"`
	Streamers    int                `json:"streamers"`
	Monitoring   int                `json:"monitoring"`
	Recording    int                `json:"recording"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// LogsResponse carries recent daemon log events and the cursor for the next poll.
type LogsResponse struct {
	Events []logging.LogEvent `json:"events"`
	Next   uint64             `json:"next"`
}
