// Package history keeps an audit trail of pruning runs in SQLite: one row
// per machine per run, and one row per deletion attempt.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/raoulx24/tarsnap-pruner/internal/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT    NOT NULL,
	hostname    TEXT    NOT NULL,
	key_file    TEXT    NOT NULL,
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	dry_run     INTEGER NOT NULL,
	kept        INTEGER NOT NULL,
	pruned      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	unknown     INTEGER NOT NULL,
	error       TEXT    NOT NULL,
	PRIMARY KEY (run_id, key_file)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

CREATE TABLE IF NOT EXISTS deletions (
	run_id   TEXT NOT NULL,
	hostname TEXT NOT NULL,
	key_file TEXT NOT NULL,
	archive  TEXT NOT NULL,
	outcome  TEXT NOT NULL,
	error    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deletions_archive ON deletions(archive);
`

// Entry is one stored machine run. A machine is identified by its key file,
// several key files may map to the same hostname.
type Entry struct {
	RunID    string
	Hostname string
	KeyFile  string
	Started  time.Time
	Duration time.Duration
	DryRun   bool
	Kept     int
	Pruned   int
	Failed   int
	Unknown  int
	Error    string
}

// Deletion is one stored deletion attempt.
type Deletion struct {
	RunID    string
	Hostname string
	KeyFile  string
	Archive  string
	Outcome  string // "deleted" or "failed"
	Error    string
}

// Store is a SQLite backed run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path cannot be empty")
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// single writer; also keeps one shared :memory: database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record stores a machine report. Dry runs are stored too, flagged, without
// deletion rows.
func (s *Store) Record(ctx context.Context, r report.Report) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, hostname, key_file, started_at, duration_ms, dry_run, kept, pruned, failed, unknown, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Hostname, r.KeyFile, r.Started.Unix(), r.Duration.Milliseconds(), r.DryRun,
		r.Kept, len(r.Pruned), len(r.Failed), r.Unknown, r.ErrorString())
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	if !r.DryRun {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO deletions (run_id, hostname, key_file, archive, outcome, error) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing deletion insert: %w", err)
		}
		defer stmt.Close()

		for _, name := range r.Pruned {
			if _, err := stmt.ExecContext(ctx, r.RunID, r.Hostname, r.KeyFile, name, "deleted", ""); err != nil {
				return fmt.Errorf("inserting deletion: %w", err)
			}
		}
		for _, f := range r.Failed {
			if _, err := stmt.ExecContext(ctx, r.RunID, r.Hostname, r.KeyFile, f.Archive, "failed", f.Error); err != nil {
				return fmt.Errorf("inserting deletion: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, hostname, key_file, started_at, duration_ms, dry_run, kept, pruned, failed, unknown, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			started  int64
			duration int64
		)
		if err := rows.Scan(&e.RunID, &e.Hostname, &e.KeyFile, &started, &duration, &e.DryRun,
			&e.Kept, &e.Pruned, &e.Failed, &e.Unknown, &e.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		e.Started = time.Unix(started, 0)
		e.Duration = time.Duration(duration) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Deletions returns the deletion attempts recorded for a run.
func (s *Store) Deletions(ctx context.Context, runID string) ([]Deletion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, hostname, key_file, archive, outcome, error
		FROM deletions WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying deletions: %w", err)
	}
	defer rows.Close()

	var out []Deletion
	for rows.Next() {
		var d Deletion
		if err := rows.Scan(&d.RunID, &d.Hostname, &d.KeyFile, &d.Archive, &d.Outcome, &d.Error); err != nil {
			return nil, fmt.Errorf("scanning deletion: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
