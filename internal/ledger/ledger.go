// ABOUTME: SQLite journal of sweep runs and tombstoned papers using
// ABOUTME: modernc.org/sqlite with automatic schema creation

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// RunRecord is one sweep run's bookkeeping row.
type RunRecord struct {
	ID          string        // UUID v4
	StartedAt   time.Time     // when the run began
	FinishedAt  *time.Time    // nil while the run is still open
	Window      time.Duration // configured run length
	Matched     int64         // final match count, 0 until finished
	TitlePrefix string        // configured title criterion
	Author      string        // configured author criterion
}

// PurgeRecord is one tombstoned paper.
type PurgeRecord struct {
	ID        string // UUID v4
	RunID     string // owning run
	PaperID   string
	Title     string
	Author    string
	Reason    string
	Timestamp time.Time
}

// Ledger is the journal handle. All methods are safe for concurrent use.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the journal at path. Parent directories are
// created if needed and the schema is applied automatically.
func Open(path string) (*Ledger, error) {
	logger := slog.Default().With("component", "ledger")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	l := &Ledger{db: db, logger: logger}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("ledger opened", "path", path)
	return l, nil
}

func (l *Ledger) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			window_ms INTEGER NOT NULL,
			matched INTEGER NOT NULL DEFAULT 0,
			title_prefix TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS purges (
			purge_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			paper_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL,
			ts DATETIME NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		);

		CREATE INDEX IF NOT EXISTS idx_purges_run_id
			ON purges(run_id);

		CREATE INDEX IF NOT EXISTS idx_purges_ts
			ON purges(ts);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// StartRun inserts a run row. Generates ID and StartedAt if not set.
func (l *Ledger) StartRun(ctx context.Context, r *RunRecord) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO runs (run_id, started_at, finished_at, window_ms, matched, title_prefix, author)
		VALUES (?, ?, NULL, ?, 0, ?, ?)
	`
	_, err := l.db.ExecContext(ctx, query,
		r.ID,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.Window.Milliseconds(),
		r.TitlePrefix,
		r.Author,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	l.logger.Debug("run started", "run_id", r.ID, "window", r.Window)
	return nil
}

// FinishRun stamps a run's end time and final match count.
func (l *Ledger) FinishRun(ctx context.Context, runID string, matched int64) error {
	query := `UPDATE runs SET finished_at = ?, matched = ? WHERE run_id = ?`

	res, err := l.db.ExecContext(ctx, query,
		time.Now().UTC().Format(time.RFC3339), matched, runID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finishing run: run %s not found", runID)
	}

	l.logger.Debug("run finished", "run_id", runID, "matched", matched)
	return nil
}

// RecordPurge appends one purge row. Generates ID and Timestamp if not set.
func (l *Ledger) RecordPurge(ctx context.Context, p *PurgeRecord) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO purges (purge_id, run_id, paper_id, title, author, reason, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := l.db.ExecContext(ctx, query,
		p.ID,
		p.RunID,
		p.PaperID,
		p.Title,
		p.Author,
		p.Reason,
		p.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting purge: %w", err)
	}

	l.logger.Debug("purge recorded", "purge_id", p.ID, "paper_id", p.PaperID)
	return nil
}

// normalizeLimit applies default (50) and cap (500) to list limits.
func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 500:
		return 500
	default:
		return limit
	}
}

const listRunsQuery = `
	SELECT run_id, started_at, finished_at, window_ms, matched, title_prefix, author
	FROM runs
	ORDER BY started_at DESC
	LIMIT ?
`

// ListRuns returns runs, newest first.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := l.db.QueryContext(ctx, listRunsQuery, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var startedStr string
		var finishedStr *string
		var windowMS int64

		if err := rows.Scan(&r.ID, &startedStr, &finishedStr, &windowMS,
			&r.Matched, &r.TitlePrefix, &r.Author); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		r.StartedAt, err = time.Parse(time.RFC3339, startedStr)
		if err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if finishedStr != nil {
			t, err := time.Parse(time.RFC3339, *finishedStr)
			if err != nil {
				return nil, fmt.Errorf("parsing finished_at: %w", err)
			}
			r.FinishedAt = &t
		}
		r.Window = time.Duration(windowMS) * time.Millisecond

		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	if runs == nil {
		runs = []RunRecord{}
	}
	return runs, nil
}

const listPurgesQuery = `
	SELECT purge_id, run_id, paper_id, title, author, reason, ts
	FROM purges
	WHERE (? IS NULL OR run_id = ?)
	ORDER BY ts DESC
	LIMIT ?
`

// ListPurges returns purge rows, newest first. An empty runID lists purges
// across all runs.
func (l *Ledger) ListPurges(ctx context.Context, runID string, limit int) ([]PurgeRecord, error) {
	var runFilter *string
	if runID != "" {
		runFilter = &runID
	}

	rows, err := l.db.QueryContext(ctx, listPurgesQuery,
		runFilter, runFilter, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying purges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var purges []PurgeRecord
	for rows.Next() {
		var p PurgeRecord
		var tsStr string

		if err := rows.Scan(&p.ID, &p.RunID, &p.PaperID, &p.Title,
			&p.Author, &p.Reason, &tsStr); err != nil {
			return nil, fmt.Errorf("scanning purge: %w", err)
		}

		p.Timestamp, err = time.Parse(time.RFC3339, tsStr)
		if err != nil {
			return nil, fmt.Errorf("parsing purge timestamp: %w", err)
		}

		purges = append(purges, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating purges: %w", err)
	}

	if purges == nil {
		purges = []PurgeRecord{}
	}
	return purges, nil
}
