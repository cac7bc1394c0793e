package capture

import (
	"fmt"
	"path/filepath"
	"time"

	"streamkeeper/internal/textutil"
)

// FileTimeLayout is the timestamp suffix used in recording file names.
const FileTimeLayout = "20060102_150405"

// OutputPath returns {dir}/{username}/{SITE}_{username}_{yyyyMMdd}_{HHmmss}.{ext}.
func OutputPath(dir, username, siteTag, ext string, at time.Time) string {
	name := textutil.SanitizeFileName(fmt.Sprintf("%s_%s_%s.%s", siteTag, username, at.Format(FileTimeLayout), ext))
	return filepath.Join(dir, username, name)
}

// SnapshotPath returns the preview image location for username.
func SnapshotPath(dir, username string) string {
	return filepath.Join(dir, username+".jpg")
}

func recordArgs(locator, output string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-timeout", "10000000",
		"-i", locator,
		"-c:v", "copy",
		"-c:a", "copy",
		"-bsf:a", "aac_adtstoasc",
		"-movflags", "+faststart",
		"-y", output,
	}
}

func snapshotArgs(locator, output string, width int) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", locator,
		"-vframes", "1",
		"-q:v", "2",
		"-vf", fmt.Sprintf("scale=%d:-1", width),
		"-f", "mjpeg",
		"-y", output,
	}
}
