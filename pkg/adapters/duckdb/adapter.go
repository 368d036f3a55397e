// Package duckdb provides a DuckDB connection adapter for sqlbatch.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/sqlbatch/pkg/adapters/duckdb"
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/leapstack-labs/sqlbatch/pkg/adapter"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// Name is the registered driver name.
const Name = "duckdb"

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{BaseSQLAdapter: adapter.NewBase(logger)}
}

// Name returns the registered driver name.
func (a *Adapter) Name() string { return Name }

// Connect opens a DuckDB database.
// An empty path opens an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	params, err := ParseParams(cfg.Options)
	if err != nil {
		return err
	}

	path := cfg.ConnectionString
	if path == "" {
		path = cfg.Path
	}

	a.Logger.Debug("opening duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	// Session setup must run on the single in-memory connection.
	if path == "" || path == ":memory:" {
		cfg.Pool.MaxOpenConns = 1
		cfg.Pool.MaxIdleConns = 1
	}

	if err := a.Attach(ctx, db, cfg); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	for _, stmt := range params.SetupStatements() {
		if _, err := a.DB.ExecContext(ctx, stmt); err != nil {
			_ = a.Close()
			return fmt.Errorf("duckdb setup %q: %w", stmt, err)
		}
	}
	return nil
}
