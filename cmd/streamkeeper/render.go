package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"streamkeeper/internal/api"
)

func renderStreamers(out io.Writer, status *api.StatusResponse) {
	if len(status.Streamers) == 0 {
		fmt.Fprintln(out, "No streamers yet. Add one with: add <username> CB")
		return
	}
	rows := make([][]string, 0, len(status.Streamers))
	for _, st := range status.Streamers {
		rows = append(rows, []string{
			st.Username,
			st.Site,
			onlineLabel(st),
			recordingLabel(st),
			st.Duration,
			strconv.Itoa(st.CheckCount),
			monitoringLabel(st),
			relativeTime(st.LastCheck),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Streamer", "Site", "Status", "Recording", "Duration", "Checks", "Monitor", "Last Check"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))
	fmt.Fprintf(out, "%d streamers, %d online, %d recording, %d files\n",
		status.TotalStreamers, status.OnlineStreamers, status.ActiveRecordings, status.TotalFiles)
}

func onlineLabel(st api.StreamerStatus) string {
	if st.IsOnline {
		return "online"
	}
	return "offline"
}

func recordingLabel(st api.StreamerStatus) string {
	if st.IsRecording {
		return "recording"
	}
	return "waiting"
}

func monitoringLabel(st api.StreamerStatus) string {
	if st.IsMonitoring {
		return "active"
	}
	return "paused"
}

func relativeTime(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return humanize.Time(ts)
}

func renderRecordings(out io.Writer, resp *api.RecordingsResponse, probe bool) {
	if len(resp.Recordings) == 0 {
		fmt.Fprintln(out, "No recordings yet.")
		return
	}
	headers := []string{"File", "Streamer", "Site", "Date", "Size"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}
	if probe {
		headers = append(headers, "Duration", "Resolution")
		aligns = append(aligns, alignRight, alignLeft)
	}
	var total int64
	rows := make([][]string, 0, len(resp.Recordings))
	for _, rec := range resp.Recordings {
		total += rec.SizeBytes
		row := []string{rec.Path, rec.Username, rec.Site, rec.Date, rec.Size}
		if probe {
			row = append(row, dashIfEmpty(rec.Duration), dashIfEmpty(rec.Resolution))
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	fmt.Fprintf(out, "%d files, %s total\n", resp.Total, humanize.IBytes(uint64(max(total, 0))))
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// printAction writes the daemon's message and turns a failed action into an
// error so the command exits non-zero.
func printAction(out io.Writer, resp *api.ActionResponse) error {
	if resp == nil {
		return errors.New("empty response from daemon")
	}
	if !resp.Success {
		return errors.New(resp.Message)
	}
	fmt.Fprintln(out, resp.Message)
	return nil
}
