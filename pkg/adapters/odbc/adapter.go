// Package odbc provides an ODBC connection adapter for sqlbatch.
//
// The adapter passes the configured connection string to the system ODBC
// driver manager unchanged, for example:
//
//	DRIVER={IBM i Access ODBC Driver};SYSTEM=host;UID=user;PWD=secret
package odbc

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	_ "github.com/alexbrainman/odbc" // odbc database/sql driver

	"github.com/leapstack-labs/sqlbatch/pkg/adapter"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// Name is the registered driver name.
const Name = "odbc"

// Adapter implements the adapter.Adapter interface over ODBC.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new ODBC adapter instance.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{BaseSQLAdapter: adapter.NewBase(logger)}
}

// Name returns the registered driver name.
func (a *Adapter) Name() string { return Name }

// Connect opens the ODBC data source. A connection string is required.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	dsn := connectionString(cfg)
	if dsn == "" {
		return core.ErrConnectionStringRequired
	}

	a.Logger.Debug("connecting over odbc", slog.String("db_type", cfg.DBType))

	return a.Open(ctx, "odbc", dsn, cfg)
}

// connectionString returns cfg.ConnectionString with any options appended
// as KEY=value attributes in key order.
func connectionString(cfg core.ConnectionConfig) string {
	dsn := strings.TrimSpace(cfg.ConnectionString)
	if dsn == "" || len(cfg.Options) == 0 {
		return dsn
	}

	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(strings.TrimSuffix(dsn, ";"))
	for _, k := range keys {
		b.WriteString(";")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(cfg.Options[k])
	}
	return b.String()
}
