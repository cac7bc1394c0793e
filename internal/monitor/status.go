package monitor

import "time"

// StreamerStatus is a point-in-time projection of one streamer.
type StreamerStatus struct {
	Key            string
	Username       string
	Site           string
	Online         bool
	Recording      bool
	Monitoring     bool
	State          State
	CheckCount     int
	LastCheck      time.Time
	RecordingSince time.Time
	Duration       time.Duration
	OutputPath     string
	ThumbnailURL   string
	ProfileURL     string
}

func (s *streamer) status(now time.Time) StreamerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := StreamerStatus{
		Key:            s.key,
		Username:       s.username,
		Site:           s.siteTag,
		Online:         s.online,
		Recording:      s.recording,
		Monitoring:     s.monitoring,
		State:          deriveState(s.monitoring, s.recording, s.everStarted),
		CheckCount:     s.checkCount,
		LastCheck:      s.lastCheck,
		RecordingSince: s.recordingSince,
		ThumbnailURL:   s.site.ThumbnailURL(s.username),
		ProfileURL:     s.site.ProfileURL(s.username),
	}
	if s.recording && !s.recordingSince.IsZero() {
		st.Duration = now.Sub(s.recordingSince)
		if s.capture != nil {
			st.OutputPath = s.capture.OutputPath()
		}
	}
	return st
}
