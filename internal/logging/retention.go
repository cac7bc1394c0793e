package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultRetentionPattern matches per-run daemon log files.
const DefaultRetentionPattern = "streamkeeper-*.log"

// RetentionTarget is one directory to prune. Files named in Exclude are never
// removed, and the KeepNewest most recent matches survive regardless of age.
type RetentionTarget struct {
	Dir        string
	Pattern    string
	Exclude    []string
	KeepNewest int
}

type logCandidate struct {
	path    string
	modTime time.Time
}

// CleanupOldLogs removes matching files older than retentionDays.
// retentionDays <= 0 disables pruning.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) {
	if retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, target := range targets {
		for _, path := range expiredLogs(target, cutoff) {
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check permissions on paths.log_dir"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			if logger != nil {
				logger.Info("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
			}
		}
	}
}

func expiredLogs(target RetentionTarget, cutoff time.Time) []string {
	dir := strings.TrimSpace(target.Dir)
	if dir == "" {
		return nil
	}
	pattern := strings.TrimSpace(target.Pattern)
	if pattern == "" {
		pattern = DefaultRetentionPattern
	}
	excluded := make(map[string]bool, len(target.Exclude))
	for _, path := range target.Exclude {
		if path = strings.TrimSpace(path); path != "" {
			excluded[absPath(path)] = true
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var candidates []logCandidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, err := filepath.Match(pattern, entry.Name()); err != nil || !ok {
			continue
		}
		path := absPath(filepath.Join(dir, entry.Name()))
		if excluded[path] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, logCandidate{path: path, modTime: info.ModTime()})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime.After(candidates[j].modTime)
	})
	var expired []string
	for i, c := range candidates {
		if i < target.KeepNewest || !c.modTime.Before(cutoff) {
			continue
		}
		expired = append(expired, c.path)
	}
	return expired
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
