package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/sqlbatch/pkg/adapter"

	// Register the matching query profile.
	_ "github.com/leapstack-labs/sqlbatch/pkg/dialects/postgres"
)

func init() {
	adapter.Register(Name, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
