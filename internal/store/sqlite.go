package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/kernsim/pkg/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by DeleteRun for an unknown id.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.Run) error {
	s.logger.Debug("sql", "op", "insert", "table", "runs", "id", run.ID, "entries", len(run.Trace))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, name, description, discipline, event_count, final_pid, clock, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Name, run.Description, string(run.Discipline), run.EventCount,
		int(run.FinalPID), run.Clock, run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trace_entries (run_id, seq, time, kind, payload, running, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare trace insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range run.Trace {
		payload, err := json.Marshal(e.Event)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", e.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, e.Seq, e.Time, string(e.Event.Kind),
			string(payload), int(e.Running), e.Error); err != nil {
			return fmt.Errorf("insert trace entry %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	s.logger.Debug("sql", "op", "select", "table", "runs", "id", id)

	run, err := s.scanRun(s.db.QueryRowContext(ctx,
		`SELECT id, name, description, discipline, event_count, final_pid, clock, created_at
		 FROM runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, time, payload, running, error FROM trace_entries
		 WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	run.Trace = make([]model.TraceEntry, 0, run.EventCount)
	for rows.Next() {
		var e model.TraceEntry
		var payload string
		var running int
		if err := rows.Scan(&e.Seq, &e.Time, &payload, &running, &e.Error); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &e.Event); err != nil {
			return nil, fmt.Errorf("unmarshal trace entry %d: %w", e.Seq, err)
		}
		e.Running = model.PID(running)
		run.Trace = append(run.Trace, e)
	}
	return run, rows.Err()
}

func (s *SQLiteStore) ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "runs", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	var where string
	var args []any
	if opts.Discipline != "" {
		where = " WHERE discipline = ?"
		args = append(args, string(opts.Discipline))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, discipline, event_count, final_pid, clock, created_at
		 FROM runs`+where+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := s.scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "runs", "id", id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// foreign_keys is per connection, so the cascade is not relied on.
	if _, err := tx.ExecContext(ctx, `DELETE FROM trace_entries WHERE run_id = ?`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanRun(row scanner) (*model.Run, error) {
	var run model.Run
	var discipline, createdAt string
	var finalPID int
	if err := row.Scan(&run.ID, &run.Name, &run.Description, &discipline,
		&run.EventCount, &finalPID, &run.Clock, &createdAt); err != nil {
		return nil, err
	}
	run.Discipline = model.Discipline(discipline)
	run.FinalPID = model.PID(finalPID)
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &run, nil
}
