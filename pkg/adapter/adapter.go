// Package adapter provides the connection lifecycle contract for sqlbatch.
//
// This package contains the public contract that all database adapters must implement.
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves from init().
package adapter

import (
	"context"

	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// Adapter opens a backend and hands out connections for statement execution.
type Adapter interface {
	// Connect opens the backend described by cfg and verifies it is reachable.
	Connect(ctx context.Context, cfg core.ConnectionConfig) error

	// Close closes the backend and releases all pooled connections.
	Close() error

	// Ping verifies the backend is still reachable.
	Ping(ctx context.Context) error

	// Acquire pins one connection for the caller. The caller must Release it.
	Acquire(ctx context.Context) (Conn, error)

	// Name returns the registered adapter name.
	Name() string
}

// Conn is a single acquired connection.
type Conn interface {
	// Query runs one statement and returns its rows in a uniform shape.
	// Statements that produce no rows return an empty result set.
	Query(ctx context.Context, text string) (*core.ResultSet, error)

	// Release returns the connection to its pool. Safe to call more than once.
	Release()
}
