package deps

import (
	"context"

	"streamkeeper/internal/config"
)

// CaptureRequirements lists the tools the capture pipeline invokes. ffmpeg is
// required for recording and snapshots; ffprobe only enriches recording
// listings.
func CaptureRequirements(cfg *config.Config) []Requirement {
	ffmpeg, ffprobe := "ffmpeg", "ffprobe"
	if cfg != nil {
		ffmpeg = cfg.Capture.FFmpegBinary
		ffprobe = cfg.Capture.FFprobeBinary
	}
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Records live streams and grabs preview snapshots",
			VersionArgs: []string{"-hide_banner", "-version"},
		},
		{
			Name:        "FFprobe",
			Command:     ffprobe,
			Description: "Reports duration and resolution of recordings",
			Optional:    true,
			VersionArgs: []string{"-hide_banner", "-version"},
		},
	}
}

// CheckCapture runs CheckBinaries over CaptureRequirements.
func CheckCapture(ctx context.Context, cfg *config.Config) []Status {
	return CheckBinaries(ctx, CaptureRequirements(cfg))
}
