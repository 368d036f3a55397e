// Package history persists executed statements to a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// Status of a recorded statement.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Entry is one recorded statement.
type Entry struct {
	ResultID     string    `json:"resultId" yaml:"resultId"`
	RequestID    string    `json:"requestId" yaml:"requestId"`
	ConnectionID string    `json:"connId" yaml:"connId"`
	Statement    string    `json:"query" yaml:"query"`
	Status       string    `json:"status" yaml:"status"`
	Message      string    `json:"message" yaml:"message"`
	RowCount     int       `json:"rowCount" yaml:"rowCount"`
	CreatedAt    time.Time `json:"createdAt" yaml:"createdAt"`
}

// Filter narrows List results. Zero values mean no restriction.
type Filter struct {
	RequestID string
	Status    string
	Search    string
	Since     time.Time
	Limit     int
}

// Store is the history database.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates an unopened store.
// If logger is nil, a discard logger is used.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger, now: time.Now}
}

// Open opens the database at path and applies migrations.
// Use ":memory:" for an in-memory database.
func (s *Store) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create history directory: %w", err)
			}
		}
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	// Every :memory: connection is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping history database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return err
	}

	s.logger.Debug("history opened", slog.String("path", path))
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Record stores one row per envelope in a single transaction.
func (s *Store) Record(ctx context.Context, envelopes []core.Envelope) error {
	if s.db == nil {
		return fmt.Errorf("history database not opened")
	}
	if len(envelopes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO executions
			(result_id, request_id, connection_id, statement, status, message, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := s.now().UTC()
	for _, e := range envelopes {
		status := StatusOK
		if e.IsError {
			status = StatusError
		}
		created := now
		if len(e.Messages) > 0 && !e.Messages[0].Date.IsZero() {
			created = e.Messages[0].Date.UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			e.ResultID, e.RequestID, e.ConnectionID, e.Query,
			status, e.Message(), len(e.Rows), created,
		); err != nil {
			return fmt.Errorf("failed to record %s: %w", e.ResultID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	s.logger.Debug("history recorded", slog.Int("statements", len(envelopes)))
	return nil
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history database not opened")
	}

	var (
		conds []string
		args  []any
	)
	if f.RequestID != "" {
		conds = append(conds, "request_id = ?")
		args = append(args, f.RequestID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Search != "" {
		conds = append(conds, "LOWER(statement) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
	}
	if !f.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.Since.UTC())
	}

	query := `SELECT result_id, request_id, connection_id, statement, status, message, row_count, created_at FROM executions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ResultID, &e.RequestID, &e.ConnectionID, &e.Statement,
			&e.Status, &e.Message, &e.RowCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return out, nil
}

// Clear deletes all entries.
func (s *Store) Clear(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("history database not opened")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM executions`)
	return err
}
