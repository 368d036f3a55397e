// Package sqlserver provides a Microsoft SQL Server connection adapter for sqlbatch.
package sqlserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	_ "github.com/microsoft/go-mssqldb" // sqlserver database/sql driver

	"github.com/leapstack-labs/sqlbatch/pkg/adapter"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// Name is the registered driver name.
const Name = "sqlserver"

// Adapter implements the adapter.Adapter interface for SQL Server.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQL Server adapter instance.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{BaseSQLAdapter: adapter.NewBase(logger)}
}

// Name returns the registered driver name.
func (a *Adapter) Name() string { return Name }

// Connect establishes a connection to SQL Server.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	dsn := cfg.ConnectionString
	if dsn == "" {
		var err error
		if dsn, err = buildDSN(cfg); err != nil {
			return err
		}
	}

	a.Logger.Debug("connecting to sqlserver", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	return a.Open(ctx, "sqlserver", dsn, cfg)
}

// buildDSN builds a sqlserver:// URL. Extra options become query parameters.
func buildDSN(cfg core.ConnectionConfig) (string, error) {
	if cfg.Host == "" {
		return "", errors.New("connection.host is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 1433
	}
	if port < 0 || port > 65535 {
		return "", errors.New("connection.port is invalid")
	}

	u := &url.URL{
		Scheme: "sqlserver",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}

	q := url.Values{}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
