package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/sqlbatch/pkg/adapter"

	// The generic profile targets SQLite catalogs.
	_ "github.com/leapstack-labs/sqlbatch/pkg/dialects/generic"
)

func init() {
	adapter.Register(Name, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
