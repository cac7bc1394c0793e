package recordings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"streamkeeper/internal/config"
	"streamkeeper/internal/logging"
	"streamkeeper/internal/media/ffprobe"
	"streamkeeper/internal/services"
)

const defaultProbeTimeout = 15 * time.Second

// Recording describes one capture artifact.
type Recording struct {
	// Path is relative to the library root and always slash separated.
	Path       string
	AbsPath    string
	Filename   string
	Username   string
	Site       string
	RecordedAt time.Time
	ModTime    time.Time
	SizeBytes  int64

	// Populated only by probed listings.
	Duration   time.Duration
	Resolution string
}

// DateText renders RecordedAt for display, or "unknown" for unparsable names.
func (r Recording) DateText() string {
	if r.RecordedAt.IsZero() {
		return "unknown"
	}
	return r.RecordedAt.Format(DateLayout)
}

// SizeText renders SizeBytes in binary units.
func (r Recording) SizeText() string {
	if r.SizeBytes < 0 {
		return humanize.IBytes(0)
	}
	return humanize.IBytes(uint64(r.SizeBytes))
}

// ListOptions tunes Library.List.
type ListOptions struct {
	Probe bool
}

// Library reads and mutates the recordings directory.
type Library struct {
	root          string
	extension     string
	ffprobeBinary string
	probeTimeout  time.Duration
	logger        *slog.Logger
}

// NewLibrary constructs a library rooted at root that lists files with ext.
func NewLibrary(root, ext, ffprobeBinary string, logger *slog.Logger) *Library {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Library{
		root:          filepath.Clean(root),
		extension:     "." + strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), "."),
		ffprobeBinary: ffprobeBinary,
		probeTimeout:  defaultProbeTimeout,
		logger:        logger.With(logging.String(logging.FieldComponent, "recordings")),
	}
}

// FromConfig builds a library over cfg.Paths.RecordingsDir.
func FromConfig(cfg *config.Config, logger *slog.Logger) *Library {
	return NewLibrary(cfg.Paths.RecordingsDir, cfg.Capture.Extension, cfg.Capture.FFprobeBinary, logger)
}

// Root returns the absolute library directory.
func (l *Library) Root() string {
	return l.root
}

// List walks the library and returns recordings sorted by size, largest
// first. A missing root yields an empty list.
func (l *Library) List(ctx context.Context, opts ListOptions) ([]Recording, error) {
	var items []Recording
	err := l.walk(func(path string, info fs.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		items = append(items, l.recordingFor(path, info))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SizeBytes != items[j].SizeBytes {
			return items[i].SizeBytes > items[j].SizeBytes
		}
		return items[i].Path < items[j].Path
	})

	if opts.Probe {
		for i := range items {
			if ctx.Err() != nil {
				break
			}
			l.probe(ctx, &items[i])
		}
	}
	return items, nil
}

// Count returns the number of recordings without building the full list.
func (l *Library) Count() (int, error) {
	count := 0
	err := l.walk(func(string, fs.FileInfo) error {
		count++
		return nil
	})
	return count, err
}

// Resolve maps a client supplied relative path to an absolute file inside
// the library. Absolute paths and anything escaping the root are rejected
// with a validation error; missing files return a not-found error.
func (l *Library) Resolve(rel string) (string, error) {
	cleaned := strings.TrimSpace(rel)
	if cleaned == "" {
		return "", services.Wrap(services.ErrValidation, "recordings", "resolve", "path is required", nil)
	}
	cleaned = filepath.FromSlash(strings.ReplaceAll(cleaned, "\\", "/"))
	if filepath.IsAbs(cleaned) {
		return "", services.Wrap(services.ErrValidation, "recordings", "resolve", "absolute paths are not allowed", nil)
	}
	full := filepath.Join(l.root, cleaned)
	inside, err := filepath.Rel(l.root, full)
	if err != nil || inside == "." || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", services.Wrap(services.ErrValidation, "recordings", "resolve", fmt.Sprintf("path %q is outside the recordings directory", rel), nil)
	}

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "recordings", "resolve", fmt.Sprintf("recording %q not found", rel), nil)
		}
		return "", fmt.Errorf("stat recording: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", services.Wrap(services.ErrValidation, "recordings", "resolve", fmt.Sprintf("%q is not a file", rel), nil)
	}
	return full, nil
}

// Delete removes a single recording and, when it leaves the per-user
// directory empty, that directory as well.
func (l *Library) Delete(rel string) error {
	full, err := l.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	parent := filepath.Dir(full)
	if parent != l.root {
		// Only succeeds when empty.
		_ = os.Remove(parent)
	}
	l.logger.Info("recording deleted", logging.String("path", filepath.ToSlash(rel)))
	return nil
}

func (l *Library) walk(visit func(path string, info fs.FileInfo) error) error {
	err := filepath.WalkDir(l.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == l.root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), l.extension) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return visit(path, info)
	})
	if err != nil {
		return fmt.Errorf("walk recordings: %w", err)
	}
	return nil
}

func (l *Library) recordingFor(path string, info fs.FileInfo) Recording {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		rel = info.Name()
	}
	parsed, _ := ParseFilename(info.Name())
	return Recording{
		Path:       filepath.ToSlash(rel),
		AbsPath:    path,
		Filename:   info.Name(),
		Username:   parsed.Username,
		Site:       parsed.Site,
		RecordedAt: parsed.RecordedAt,
		ModTime:    info.ModTime(),
		SizeBytes:  info.Size(),
	}
}

func (l *Library) probe(ctx context.Context, rec *Recording) {
	probeCtx, cancel := context.WithTimeout(ctx, l.probeTimeout)
	defer cancel()
	result, err := ffprobe.Inspect(probeCtx, l.ffprobeBinary, rec.AbsPath)
	if err != nil {
		l.logger.Debug("recording probe failed",
			logging.String("path", rec.Path),
			logging.Error(err),
		)
		return
	}
	rec.Duration = result.Duration()
	rec.Resolution = result.Resolution()
}
