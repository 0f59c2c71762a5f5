// Package ledger persists the cost of every remote call in a SQLite file so
// spending can be reviewed across runs.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrEmptyPath indicates Open was called without a database path.
var ErrEmptyPath = errors.New("ledger path cannot be empty")

// Entry is one priced remote call.
type Entry struct {
	RunID            string
	Time             time.Time
	Source           string // media or transcript file the run processed
	Phase            string
	ChunkIndex       int // -1 for the reduce call
	Model            string
	PromptTokens     int
	CompletionTokens int
	Amount           float64 // USD
}

// RunTotal aggregates the entries of one run.
type RunTotal struct {
	RunID            string
	Source           string
	Started          time.Time
	Calls            int
	PromptTokens     int
	CompletionTokens int
	Amount           float64
}

// Ledger is a SQLite-backed cost ledger.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger at path.
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports single writer

	l := &Ledger{db: db}
	if err := l.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return l, nil
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		at INTEGER NOT NULL,
		source TEXT NOT NULL,
		phase TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		model TEXT NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		amount REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_calls_run ON calls(run_id);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Record inserts entries in one transaction.
func (l *Ledger) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO calls (run_id, at, source, phase, chunk_index, model, prompt_tokens, completion_tokens, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare ledger insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		_, err := stmt.ExecContext(ctx,
			e.RunID, e.Time.UnixMilli(), e.Source, e.Phase, e.ChunkIndex, e.Model,
			e.PromptTokens, e.CompletionTokens, e.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to record call: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger transaction: %w", err)
	}
	return nil
}

// Runs returns per-run totals, most recent first.
// A limit of zero or less returns every run.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]RunTotal, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, MIN(source), MIN(at), COUNT(*),
			SUM(prompt_tokens), SUM(completion_tokens), SUM(amount)
		FROM calls
		GROUP BY run_id
		ORDER BY MIN(at) DESC, run_id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []RunTotal
	for rows.Next() {
		var (
			r       RunTotal
			started int64
		)
		if err := rows.Scan(&r.RunID, &r.Source, &started, &r.Calls,
			&r.PromptTokens, &r.CompletionTokens, &r.Amount); err != nil {
			return nil, fmt.Errorf("failed to read ledger row: %w", err)
		}
		r.Started = time.UnixMilli(started)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return runs, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
