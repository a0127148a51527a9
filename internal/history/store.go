package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"icandy/internal/build"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded build.
type Run struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      string
	Error       string
	Total       int
	Processed   int
	Skipped     int
	Failed      int
	Assets      int
	StoreKeys   int
	StoreAssets int
	Failures    []build.KeyFailure
}

// Duration reports how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists build runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
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

// RecordRun implements build.RunRecorder.
func (s *Store) RecordRun(ctx context.Context, summary build.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO build_runs (
            run_id, started_at, finished_at, status, error_message,
            total_keys, processed_keys, skipped_keys, failed_keys,
            assets_downloaded, store_keys, store_assets
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID,
		summary.StartedAt.UTC().Format(timeLayout),
		summary.FinishedAt.UTC().Format(timeLayout),
		summary.Status,
		summary.Error,
		summary.Total,
		summary.Processed,
		summary.Skipped,
		summary.Failed,
		summary.Assets,
		summary.StoreKeys,
		summary.StoreAssets,
	)
	if err != nil {
		return fmt.Errorf("insert build run: %w", err)
	}
	for i, failure := range summary.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_failures (run_id, position, key, reason) VALUES (?, ?, ?, ?)`,
			summary.RunID, i, failure.Key, failure.Reason,
		); err != nil {
			return fmt.Errorf("insert run failure: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit build run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, status, error_message,
            total_keys, processed_keys, skipped_keys, failed_keys,
            assets_downloaded, store_keys, store_assets
        FROM build_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query build runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run              Run
			started, finished string
		)
		if err := rows.Scan(&run.RunID, &started, &finished, &run.Status, &run.Error,
			&run.Total, &run.Processed, &run.Skipped, &run.Failed,
			&run.Assets, &run.StoreKeys, &run.StoreAssets); err != nil {
			return nil, fmt.Errorf("scan build run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate build runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		failures, err := s.failures(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Failures = failures
	}
	return runs, nil
}

func (s *Store) failures(ctx context.Context, runID string) ([]build.KeyFailure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, reason FROM run_failures WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run failures: %w", err)
	}
	defer rows.Close()

	var failures []build.KeyFailure
	for rows.Next() {
		var failure build.KeyFailure
		if err := rows.Scan(&failure.Key, &failure.Reason); err != nil {
			return nil, fmt.Errorf("scan run failure: %w", err)
		}
		failures = append(failures, failure)
	}
	return failures, rows.Err()
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
