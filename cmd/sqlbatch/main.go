// Package main provides the sqlbatch command-line tool.
package main

import (
	"context"
	"os"

	"github.com/leapstack-labs/sqlbatch/internal/cli"

	// Connection adapters, registered via init().
	_ "github.com/leapstack-labs/sqlbatch/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqlbatch/pkg/adapters/odbc"
	_ "github.com/leapstack-labs/sqlbatch/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/sqlbatch/pkg/adapters/sqlite"
	_ "github.com/leapstack-labs/sqlbatch/pkg/adapters/sqlserver"

	// Query dialects not pulled in by an adapter.
	_ "github.com/leapstack-labs/sqlbatch/pkg/dialects/as400"
	_ "github.com/leapstack-labs/sqlbatch/pkg/dialects/duckdb"
	_ "github.com/leapstack-labs/sqlbatch/pkg/dialects/generic"
	_ "github.com/leapstack-labs/sqlbatch/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/sqlbatch/pkg/dialects/sqlserver"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
