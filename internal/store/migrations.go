package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for the capture journal.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id             TEXT PRIMARY KEY,
		kind           TEXT NOT NULL,
		dataflow       TEXT NOT NULL DEFAULT '',
		transformation TEXT NOT NULL DEFAULT '',
		task_id        TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT '',
		body           TEXT NOT NULL,
		received_at    TEXT NOT NULL,
		seq            INTEGER NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_documents_kind ON documents(kind)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_dataflow ON documents(dataflow)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_task ON documents(dataflow, transformation, task_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_seq ON documents(seq)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
