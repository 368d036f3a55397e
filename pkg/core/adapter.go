package core

import "time"

// ConnectionConfig holds configuration for connecting to a database.
type ConnectionConfig struct {
	// Driver selects the connection adapter (odbc, sqlserver, postgres, duckdb, sqlite).
	Driver string

	// ConnectionString is handed to the driver untouched when set.
	ConnectionString string

	// DBType selects the query profile (dialect) used for introspection and row limiting.
	DBType string

	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string

	Pool PoolOptions
}

// PoolOptions tunes the database/sql connection pool.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// DefaultPoolOptions returns the pool settings used when none are configured.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxOpenConns:    10,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// ColumnDescriptor describes one column of a result set.
type ColumnDescriptor struct {
	Name string

	// DatabaseType is the driver-reported type name (e.g. "VARCHAR", "INT4").
	DatabaseType string

	// TypeCode is the vendor type code used by the type catalog.
	TypeCode int
}

// Row maps column names to values. Column order lives on the ResultSet.
type Row map[string]any

// ResultSet is the uniform shape of a statement result.
type ResultSet struct {
	Columns []ColumnDescriptor
	Rows    []Row
}

// ColumnNames returns the column names in result order.
func (rs *ResultSet) ColumnNames() []string {
	if rs == nil {
		return []string{}
	}
	names := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of rows, treating a nil set as empty.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Values returns the row values in column order.
func (rs *ResultSet) Values(row Row) []any {
	out := make([]any, len(rs.Columns))
	for i, c := range rs.Columns {
		out[i] = row[c.Name]
	}
	return out
}
