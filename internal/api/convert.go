package api

import (
	"fmt"
	"time"

	"streamkeeper/internal/monitor"
	"streamkeeper/internal/recordings"
)

// FromStreamerStatus converts a registry snapshot entry. thumbnail overrides
// the site thumbnail when non-empty.
func FromStreamerStatus(st monitor.StreamerStatus, thumbnail string) StreamerStatus {
	if thumbnail == "" {
		thumbnail = st.ThumbnailURL
	}
	dto := StreamerStatus{
		Username:     st.Username,
		Site:         st.Site,
		IsOnline:     st.Online,
		IsRecording:  st.Recording,
		IsMonitoring: st.Monitoring,
		State:        st.State.String(),
		Duration:     "-",
		CheckCount:   st.CheckCount,
		OutputPath:   st.OutputPath,
		Thumbnail:    thumbnail,
		ProfileURL:   st.ProfileURL,
	}
	if st.Recording {
		dto.Duration = FormatDuration(st.Duration)
		dto.DurationSeconds = st.Duration.Seconds()
		if !st.RecordingSince.IsZero() {
			dto.RecordingSince = st.RecordingSince.UTC().Format(dateTimeFormat)
		}
	}
	if !st.LastCheck.IsZero() {
		dto.LastCheck = st.LastCheck.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromRecording converts a library entry.
func FromRecording(rec recordings.Recording) Recording {
	dto := Recording{
		Path:      rec.Path,
		Filename:  rec.Filename,
		Username:  rec.Username,
		Site:      rec.Site,
		Date:      rec.DateText(),
		SizeBytes: rec.SizeBytes,
		Size:      rec.SizeText(),
	}
	if !rec.ModTime.IsZero() {
		dto.ModifiedAt = rec.ModTime.UTC().Format(dateTimeFormat)
	}
	if rec.Duration > 0 {
		dto.Duration = FormatDuration(rec.Duration)
		dto.DurationSeconds = rec.Duration.Seconds()
	}
	dto.Resolution = rec.Resolution
	return dto
}

// FromRecordings converts a slice of library entries, preserving order.
func FromRecordings(items []recordings.Recording) []Recording {
	out := make([]Recording, 0, len(items))
	for _, rec := range items {
		out = append(out, FromRecording(rec))
	}
	return out
}

// FormatDuration renders d as "1h 02m 03s", dropping the hour part when zero.
// Negative durations read as zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02dm %02ds", minutes, seconds)
}
