package odbc

import (
	"log/slog"

	"github.com/leapstack-labs/sqlbatch/pkg/adapter"

	// Query profiles for the data sources usually reached over ODBC.
	_ "github.com/leapstack-labs/sqlbatch/pkg/dialects/as400"
	_ "github.com/leapstack-labs/sqlbatch/pkg/dialects/generic"
)

func init() {
	adapter.Register(Name, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
