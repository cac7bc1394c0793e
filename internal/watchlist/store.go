package watchlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"streamkeeper/internal/config"
)

// Entry is one persisted streamer.
type Entry struct {
	Username string    `json:"username"`
	Site     string    `json:"site"`
	AddedAt  time.Time `json:"added_at"`
}

// Store manages watchlist persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the watchlist database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path reports the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// List returns every entry in insertion order.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT username, site, added_at FROM streamers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list streamers: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry   Entry
			addedAt string
		)
		if err := rows.Scan(&entry.Username, &entry.Site, &addedAt); err != nil {
			return nil, fmt.Errorf("scan streamer: %w", err)
		}
		entry.AddedAt, _ = time.Parse(time.RFC3339Nano, addedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate streamers: %w", err)
	}
	return entries, nil
}

// Add persists a pair. It reports false when the pair was already stored.
func (s *Store) Add(ctx context.Context, username, site string) (bool, error) {
	res, err := s.execWithRetry(ctx,
		"INSERT INTO streamers (username, site, added_at) VALUES (?, ?, ?) ON CONFLICT(username, site) DO NOTHING",
		username, site, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("add streamer %s@%s: %w", username, site, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add streamer rows: %w", err)
	}
	return n > 0, nil
}

// Remove deletes a pair, or every site for username when site is empty. It
// returns the number of rows removed.
func (s *Store) Remove(ctx context.Context, username, site string) (int64, error) {
	query := "DELETE FROM streamers WHERE username = ?"
	args := []any{username}
	if site != "" {
		query += " AND site = ?"
		args = append(args, site)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("remove streamer %s: %w", username, err)
	}
	return res.RowsAffected()
}
