package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/me/dfanalyzer/pkg/provenance"
	_ "modernc.org/sqlite"
)

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

// Record appends doc to the journal. Arrival order is kept in seq.
func (s *SQLiteStore) Record(ctx context.Context, doc *Document) error {
	s.logger.Debug("sql", "op", "insert", "table", "documents", "id", doc.ID, "kind", doc.Kind)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, kind, dataflow, transformation, task_id, status, body, received_at, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM documents))`,
		doc.ID, string(doc.Kind), strings.ToLower(doc.Dataflow), strings.ToLower(doc.Transformation), doc.TaskID, string(doc.Status),
		string(doc.Body), doc.ReceivedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.ID, err)
	}
	return nil
}

// Get returns the document with the given id, or nil if none exists.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Document, error) {
	s.logger.Debug("sql", "op", "select", "table", "documents", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, dataflow, transformation, task_id, status, body, received_at
		 FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return doc, err
}

// List returns matching documents in arrival order.
func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]*Document, error) {
	f.Clamp()
	s.logger.Debug("sql", "op", "list", "table", "documents", "kind", f.Kind, "dataflow", f.Dataflow, "limit", f.Limit)

	var where []string
	var args []any
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Dataflow != "" {
		where = append(where, "dataflow = ?")
		args = append(args, strings.ToLower(f.Dataflow))
	}
	if f.TaskID != "" {
		where = append(where, "task_id = ?")
		args = append(args, f.TaskID)
	}

	query := `SELECT id, kind, dataflow, transformation, task_id, status, body, received_at FROM documents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq LIMIT ?"
	args = append(args, f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*Document, error) {
	var doc Document
	var kind, status, body, receivedAt string
	if err := row.Scan(&doc.ID, &kind, &doc.Dataflow, &doc.Transformation, &doc.TaskID, &status, &body, &receivedAt); err != nil {
		return nil, err
	}
	doc.Kind = Kind(kind)
	doc.Status = provenance.TaskStatus(status)
	doc.Body = json.RawMessage(body)
	t, err := time.Parse(time.RFC3339Nano, receivedAt)
	if err != nil {
		return nil, fmt.Errorf("document %s: parse received_at: %w", doc.ID, err)
	}
	doc.ReceivedAt = t
	return &doc, nil
}
