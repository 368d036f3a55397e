// Package explorer answers schema-browsing questions (databases, tables,
// columns, records) by running dialect query templates through the
// execution pipeline.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlbatch/pkg/core"
	"github.com/leapstack-labs/sqlbatch/pkg/dialect"
)

// Runner executes a script. *executor.Pipeline satisfies it.
type Runner interface {
	Execute(ctx context.Context, script string, opts core.Options) ([]core.Envelope, error)
}

// Database is one catalog visible to the connection.
type Database struct {
	Name string `mapstructure:"DATABASE" json:"name"`
}

// Table is a table or view.
type Table struct {
	Schema string `mapstructure:"TABLE_SCHEMA" json:"schema,omitempty"`
	Name   string `mapstructure:"TABLE_NAME" json:"name"`
	Type   string `mapstructure:"TABLE_TYPE" json:"type,omitempty"`
}

// Column is a column of a table.
type Column struct {
	Table    string `mapstructure:"TABLE_NAME" json:"table,omitempty"`
	Name     string `mapstructure:"COLUMN_NAME" json:"name"`
	DataType string `mapstructure:"DATA_TYPE" json:"dataType"`

	// Nullable is the driver-reported nullability flag, unchanged.
	Nullable string `mapstructure:"IS_NULLABLE" json:"nullable,omitempty"`
	Position int    `mapstructure:"ORDINAL_POSITION" json:"position,omitempty"`
}

// QueryError reports a failed introspection query.
type QueryError struct {
	Query   dialect.QueryName
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Query, e.Message)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Explorer runs introspection queries for the configured dialect.
type Explorer struct {
	runner Runner
	dbType func() string
}

// New creates an Explorer. dbType is read on every call.
func New(runner Runner, dbType func() string) *Explorer {
	if dbType == nil {
		dbType = func() string { return "" }
	}
	return &Explorer{runner: runner, dbType: dbType}
}

// Profile returns the query profile currently in effect.
func (e *Explorer) Profile() *dialect.Profile {
	return dialect.Resolve(e.dbType())
}

// Databases lists catalogs. Dialects without the query return none.
func (e *Explorer) Databases(ctx context.Context) ([]Database, error) {
	rows, err := e.rows(ctx, dialect.FetchDatabases, dialect.Params{})
	if err != nil {
		return nil, err
	}
	return decodeAll[Database](rows, databaseKeys)
}

// Schemas lists schema names of database.
func (e *Explorer) Schemas(ctx context.Context, database string) ([]string, error) {
	rows, err := e.rows(ctx, dialect.FetchSchemas, dialect.Params{Database: database})
	if err != nil {
		return nil, err
	}
	tables, err := decodeAll[Table](rows, tableKeys)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Schema)
	}
	return out, nil
}

// Tables lists base tables in schema.
func (e *Explorer) Tables(ctx context.Context, database, schema string) ([]Table, error) {
	return e.tables(ctx, dialect.FetchTables, dialect.Params{Database: database, Schema: schema})
}

// Views lists views in schema.
func (e *Explorer) Views(ctx context.Context, database, schema string) ([]Table, error) {
	return e.tables(ctx, dialect.FetchViews, dialect.Params{Database: database, Schema: schema})
}

// SearchTables finds tables whose name contains search.
func (e *Explorer) SearchTables(ctx context.Context, search string, limit int) ([]Table, error) {
	return e.tables(ctx, dialect.SearchTables, dialect.Params{Search: search, Limit: limit})
}

func (e *Explorer) tables(ctx context.Context, q dialect.QueryName, p dialect.Params) ([]Table, error) {
	rows, err := e.rows(ctx, q, p)
	if err != nil {
		return nil, err
	}
	return decodeAll[Table](rows, tableKeys)
}

// Columns lists the columns of table. For dialects whose catalog is keyed
// by library, database doubles as the schema.
func (e *Explorer) Columns(ctx context.Context, database, schema, table string) ([]Column, error) {
	return e.columns(ctx, dialect.FetchColumns, dialect.Params{Database: database, Schema: schema, Table: table})
}

// SearchColumns finds columns whose name contains search, optionally
// restricted to tables.
func (e *Explorer) SearchColumns(ctx context.Context, search string, tables []string, limit int) ([]Column, error) {
	return e.columns(ctx, dialect.SearchColumns, dialect.Params{Search: search, Tables: tables, Limit: limit})
}

func (e *Explorer) columns(ctx context.Context, q dialect.QueryName, p dialect.Params) ([]Column, error) {
	rows, err := e.rows(ctx, q, p)
	if err != nil {
		return nil, err
	}
	return decodeAll[Column](rows, columnKeys)
}

// Functions lists user functions in schema as raw rows.
func (e *Explorer) Functions(ctx context.Context, database, schema string) ([]core.Row, error) {
	return e.rows(ctx, dialect.FetchFunctions, dialect.Params{Database: database, Schema: schema})
}

// Describe returns the dialect's raw description rows for table.
func (e *Explorer) Describe(ctx context.Context, schema, table string) ([]core.Row, error) {
	return e.rows(ctx, dialect.DescribeTable, dialect.Params{Schema: schema, Table: table})
}

// Records returns one page of table rows. Zero limit and offset use the
// dialect defaults.
func (e *Explorer) Records(ctx context.Context, schema, table string, limit, offset int) (*core.Envelope, error) {
	return e.run(ctx, dialect.FetchRecords, dialect.Params{Schema: schema, Table: table, Limit: limit, Offset: offset})
}

// Count returns the number of rows in table.
func (e *Explorer) Count(ctx context.Context, schema, table string) (int64, error) {
	rows, err := e.rows(ctx, dialect.CountRecords, dialect.Params{Schema: schema, Table: table})
	if err != nil || len(rows) == 0 {
		return 0, err
	}

	var out struct {
		Total int64 `mapstructure:"TOTAL"`
	}
	if err := decode(normalize(rows[0], nil), &out); err != nil {
		return 0, err
	}
	return out.Total, nil
}

// rows runs q and returns its rows. Unsupported queries yield no rows.
func (e *Explorer) rows(ctx context.Context, q dialect.QueryName, p dialect.Params) ([]core.Row, error) {
	env, err := e.run(ctx, q, p)
	if err != nil || env == nil {
		return []core.Row{}, err
	}
	return env.Rows, nil
}

// run renders q and executes it. It returns a nil envelope when the dialect
// does not support q.
func (e *Explorer) run(ctx context.Context, q dialect.QueryName, p dialect.Params) (*core.Envelope, error) {
	text, ok := e.Profile().Build(q, p)
	if !ok || strings.TrimSpace(text) == "" {
		return nil, nil
	}

	envs, err := e.runner.Execute(ctx, text, core.Options{
		RestrictUpdate: true,
		TrimResult:     true,
	})
	if err != nil {
		return nil, err
	}
	if len(envs) == 0 {
		return nil, nil
	}
	env := envs[0]
	if env.IsError {
		return nil, &QueryError{Query: q, Message: env.Message(), Err: env.Err}
	}
	return &env, nil
}

// IsQueryError reports whether err came from a failed introspection query.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}
