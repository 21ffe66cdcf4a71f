package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout sorts lexicographically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store remembers which recordings the watcher has handed to the worker.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the ledger database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// PRAGMAs are per connection; one connection keeps them in force.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Claim marks path as processing and counts the attempt. Unknown paths are
// inserted; pending and retry rows are taken over. It reports false when the
// file is already processing, done or failed.
func (s *Store) Claim(ctx context.Context, path string) (bool, error) {
	ts := s.timestamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO files (path, status, attempts, created_at, updated_at)
        VALUES (?, ?, 1, ?, ?)
        ON CONFLICT(path) DO UPDATE SET
            status = excluded.status,
            attempts = files.attempts + 1,
            updated_at = excluded.updated_at
        WHERE files.status IN (?, ?)`,
		path, string(StatusProcessing), ts, ts, string(StatusPending), string(StatusRetry),
	)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return n > 0, nil
}

// Finish records the worker's exit. A zero code is done; a retryable code
// becomes retry while attempts remain below maxAttempts; anything else fails.
func (s *Store) Finish(ctx context.Context, path string, exitCode int, lastError string, retryable bool, maxAttempts int) (Status, error) {
	entry, err := s.Get(ctx, path)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", fmt.Errorf("finish %s: not in ledger", path)
	}

	status := StatusFailed
	switch {
	case exitCode == 0:
		status = StatusDone
	case retryable && entry.Attempts < maxAttempts:
		status = StatusRetry
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE files SET status = ?, exit_code = ?, last_error = ?, updated_at = ? WHERE path = ?`,
		string(status), exitCode, nullableString(lastError), s.timestamp(), path,
	)
	if err != nil {
		return "", fmt.Errorf("finish %s: %w", path, err)
	}
	return status, nil
}

// Get returns the entry for path, or nil when the ledger has never seen it.
func (s *Store) Get(ctx context.Context, path string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT path, status, attempts, exit_code, last_error, created_at, updated_at
        FROM files WHERE path = ?`, path)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return entry, nil
}

// List returns every entry, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, status, attempts, exit_code, last_error, created_at, updated_at
        FROM files ORDER BY updated_at DESC, path`)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Release hands a claimed file back to pending without charging the attempt,
// for runs cut short by shutdown rather than by the file itself.
func (s *Store) Release(ctx context.Context, path string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE files SET status = ?, attempts = MAX(attempts - 1, 0), updated_at = ? WHERE path = ? AND status = ?`,
		string(StatusPending), s.timestamp(), path, string(StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("release %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release %s: %w", path, err)
	}
	if n == 0 {
		return fmt.Errorf("release %s: not processing", path)
	}
	return nil
}

// ResetProcessing returns rows left processing by a crashed watcher to
// pending so they are picked up again.
func (s *Store) ResetProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE files SET status = ?, updated_at = ? WHERE status = ?`,
		string(StatusPending), s.timestamp(), string(StatusProcessing),
	)
	if err != nil {
		return 0, fmt.Errorf("reset processing: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (*Entry, error) {
	var (
		e                    Entry
		status               string
		exitCode             sql.NullInt64
		lastError            sql.NullString
		createdAt, updatedAt string
	)
	if err := r.Scan(&e.Path, &status, &e.Attempts, &exitCode, &lastError, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Status = Status(status)
	if exitCode.Valid {
		code := int(exitCode.Int64)
		e.ExitCode = &code
	}
	e.LastError = lastError.String
	e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	e.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &e, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
