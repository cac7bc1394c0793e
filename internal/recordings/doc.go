// Package recordings enumerates and manages capture artifacts on disk.
//
// Files live under the configured recordings directory as
// {username}/{SITE}_{username}_{yyyyMMdd}_{HHmmss}.{ext}. Library lists them
// (largest first), resolves client supplied relative paths without letting
// them escape the root, and deletes single files on request. Listing can
// optionally run ffprobe to attach duration and resolution.
package recordings
