// Package sqlite provides a SQLite connection adapter for sqlbatch.
// It uses the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"log/slog"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/leapstack-labs/sqlbatch/pkg/adapter"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// Name is the registered driver name.
const Name = "sqlite"

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{BaseSQLAdapter: adapter.NewBase(logger)}
}

// Name returns the registered driver name.
func (a *Adapter) Name() string { return Name }

// Connect opens the database file at cfg.Path, or an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	dsn := cfg.ConnectionString
	if dsn == "" {
		dsn = cfg.Path
	}
	if dsn == "" || dsn == ":memory:" {
		dsn = ":memory:"
		// Each connection to :memory: is a separate database.
		cfg.Pool.MaxOpenConns = 1
		cfg.Pool.MaxIdleConns = 1
	}

	a.Logger.Debug("opening sqlite", slog.String("path", dsn))

	return a.Open(ctx, "sqlite", dsn, cfg)
}
