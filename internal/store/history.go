// Package store persists solve run history in SQLite.
//
// The engine itself keeps no state between invocations; history is an
// application-level convenience backing the `history` command. The database
// lives under ~/.tallymcp/ and is guarded by an advisory file lock so two
// tallymcp processes don't race on writes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	tallyerr "github.com/tallykit/tallymcp/internal/errors"
)

// Run is one recorded solve invocation.
type Run struct {
	ID             int64     `json:"id"`
	InputDigest    string    `json:"input_digest"`
	InputCount     int       `json:"input_count"`
	Target         float64   `json:"target"`
	MaxSolutions   int       `json:"max_solutions"`
	SolutionsFound int       `json:"solutions_found"`
	UniqueFound    int       `json:"unique_found"`
	Stopped        bool      `json:"stopped"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	CreatedAt      time.Time `json:"created_at"`
}

// HistoryStore records and lists solve runs.
type HistoryStore struct {
	db      *sql.DB
	lock    *flock.Flock
	maxRuns int
}

// OpenHistory opens (creating if needed) the history database at path.
// maxRuns bounds the number of retained rows; older runs are pruned on save.
func OpenHistory(path string, maxRuns int) (*HistoryStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, tallyerr.Wrap(tallyerr.ErrCodeFilePermission, err)
	}

	lock := flock.New(path + ".lock")
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, tallyerr.Wrap(tallyerr.ErrCodeHistoryLocked, err)
	}
	if !acquired {
		return nil, tallyerr.New(tallyerr.ErrCodeHistoryLocked,
			"history database is in use by another tallymcp process", nil).
			WithSuggestion("wait for the other process to finish, or disable history")
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = lock.Unlock()
		return nil, tallyerr.Wrap(tallyerr.ErrCodeHistoryCorrupt, err)
	}

	s := &HistoryStore{db: db, lock: lock, maxRuns: maxRuns}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

func (s *HistoryStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		input_digest TEXT NOT NULL,
		input_count INTEGER NOT NULL,
		target REAL NOT NULL,
		max_solutions INTEGER NOT NULL,
		solutions_found INTEGER NOT NULL,
		unique_found INTEGER NOT NULL,
		stopped INTEGER NOT NULL DEFAULT 0,
		elapsed_seconds REAL NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return tallyerr.Wrap(tallyerr.ErrCodeHistoryCorrupt, fmt.Errorf("create history schema: %w", err))
	}
	return nil
}

// SaveRun appends a run and prunes beyond the retention limit.
func (s *HistoryStore) SaveRun(ctx context.Context, run Run) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (input_digest, input_count, target, max_solutions,
			solutions_found, unique_found, stopped, elapsed_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.InputDigest, run.InputCount, run.Target, run.MaxSolutions,
		run.SolutionsFound, run.UniqueFound, run.Stopped, run.ElapsedSeconds)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	if s.maxRuns > 0 {
		_, err = s.db.ExecContext(ctx, `
			DELETE FROM runs WHERE id NOT IN (
				SELECT id FROM runs ORDER BY id DESC LIMIT ?
			)`, s.maxRuns)
		if err != nil {
			return id, fmt.Errorf("prune runs: %w", err)
		}
	}

	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *HistoryStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input_digest, input_count, target, max_solutions,
			solutions_found, unique_found, stopped, elapsed_seconds, created_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.InputDigest, &r.InputCount, &r.Target,
			&r.MaxSolutions, &r.SolutionsFound, &r.UniqueFound, &r.Stopped,
			&r.ElapsedSeconds, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Clear removes all recorded runs.
func (s *HistoryStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return fmt.Errorf("clear runs: %w", err)
	}
	return nil
}

// Count returns the number of stored runs.
func (s *HistoryStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

// Close releases the database and the advisory lock.
func (s *HistoryStore) Close() error {
	err := s.db.Close()
	if lerr := s.lock.Unlock(); lerr != nil && err == nil {
		err = lerr
	}
	return err
}
