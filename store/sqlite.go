// Package store persists the tool invocation audit trail.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/divin3circle/hashrexa/domain"
)

// AuditStore records tool invocations in SQLite.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore opens (and migrates) the audit database.
func NewAuditStore(dsn string) (*AuditStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &AuditStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *AuditStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS tool_calls (
		tool_call_id TEXT PRIMARY KEY,
		tool TEXT NOT NULL,
		args TEXT,
		status TEXT NOT NULL,
		transaction_id TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_tool_calls_created ON tool_calls(created_at)`)
	return err
}

// RecordToolCall appends one invocation to the audit trail.
func (s *AuditStore) RecordToolCall(ctx context.Context, rec domain.ToolCallRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_calls (tool_call_id, tool, args, status, transaction_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Tool, rec.Args, rec.Status, rec.TransactionID, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record tool call: %w", err)
	}
	return nil
}

// ListToolCalls returns the most recent invocations, newest first.
func (s *AuditStore) ListToolCalls(ctx context.Context, limit int) ([]domain.ToolCallRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tool_call_id, tool, args, status, transaction_id, created_at
		 FROM tool_calls ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool calls: %w", err)
	}
	defer rows.Close()

	var out []domain.ToolCallRecord
	for rows.Next() {
		var rec domain.ToolCallRecord
		var args, txID sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Tool, &args, &rec.Status, &txID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tool call: %w", err)
		}
		rec.Args = args.String
		rec.TransactionID = txID.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *AuditStore) Close() error {
	return s.db.Close()
}
