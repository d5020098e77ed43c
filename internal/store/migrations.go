package store

import (
	"context"
	"database/sql"
	"strings"
)

// schema contains the DDL for the run journal.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL DEFAULT '',
		discipline  TEXT NOT NULL,
		event_count INTEGER NOT NULL DEFAULT 0,
		final_pid   INTEGER NOT NULL DEFAULT 0,
		clock       INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS trace_entries (
		run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq     INTEGER NOT NULL,
		time    INTEGER NOT NULL,
		kind    TEXT NOT NULL,
		payload TEXT NOT NULL,
		running INTEGER NOT NULL,
		error   TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, seq)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_discipline ON runs(discipline)`,
}

// alterStatements are column additions that need special handling since
// SQLite doesn't support IF NOT EXISTS for ALTER TABLE ADD COLUMN.
var alterStatements = []struct {
	table    string
	column   string
	alterSQL string
	indexSQL string // Optional index to create after column is added
}{
	{
		table:    "runs",
		column:   "description",
		alterSQL: "ALTER TABLE runs ADD COLUMN description TEXT NOT NULL DEFAULT ''",
	},
}

// migrate executes all schema DDL statements, alter migrations, and post-migration indexes.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for _, alter := range alterStatements {
		if err := addColumnIfNotExists(ctx, db, alter.table, alter.column, alter.alterSQL); err != nil {
			return err
		}
		if alter.indexSQL != "" {
			if _, err := db.ExecContext(ctx, alter.indexSQL); err != nil {
				return err
			}
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(ctx context.Context, db *sql.DB, table, column, alterSQL string) error {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue *string
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if strings.EqualFold(name, column) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = db.ExecContext(ctx, alterSQL)
	return err
}
