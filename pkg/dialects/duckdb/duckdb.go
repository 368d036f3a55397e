// Package duckdb provides the query profile for DuckDB.
package duckdb

import (
	"github.com/leapstack-labs/sqlbatch/pkg/dialect"
)

func init() {
	dialect.Register(Profile)
}

// Name is the registered identifier.
const Name = "duckdb"

// Profile is the DuckDB query profile.
var Profile = &dialect.Profile{
	Name: Name,
	Queries: map[dialect.QueryName]dialect.Template{
		dialect.FetchDatabases: fetchDatabases,
		dialect.FetchSchemas:   fetchSchemas,
		dialect.FetchTables:    fetchTables("BASE TABLE"),
		dialect.FetchViews:     fetchTables("VIEW"),
		dialect.FetchColumns:   fetchColumns,
		dialect.FetchFunctions: fetchFunctions,
		dialect.SearchTables:   searchTables,
		dialect.SearchColumns:  searchColumns,
		dialect.DescribeTable:  describeTable,
		dialect.FetchRecords:   fetchRecords,
		dialect.CountRecords:   countRecords,
	},
}

func fetchDatabases(dialect.Params) string {
	return `SELECT database_name AS "DATABASE" FROM duckdb_databases() WHERE NOT internal ORDER BY database_name`
}

func fetchSchemas(p dialect.Params) string {
	where := ""
	if p.Database != "" {
		where = dialect.Raw(` WHERE catalog_name = '%s'`, p.Database)
	}
	return dialect.Raw(`SELECT schema_name AS "TABLE_SCHEMA" FROM information_schema.schemata%s ORDER BY schema_name`, where)
}

func fetchTables(tableType string) dialect.Template {
	return func(p dialect.Params) string {
		return dialect.Raw(`SELECT table_schema AS "TABLE_SCHEMA", table_name AS "TABLE_NAME" FROM information_schema.tables WHERE table_type = '%s' AND table_schema = '%s' ORDER BY table_name`,
			tableType, schemaOrDefault(p.Schema))
	}
}

func fetchColumns(p dialect.Params) string {
	return dialect.Raw(`SELECT column_name AS "COLUMN_NAME", data_type AS "DATA_TYPE", is_nullable AS "IS_NULLABLE", ordinal_position AS "ORDINAL_POSITION" FROM information_schema.columns WHERE table_schema = '%s' AND table_name = '%s' ORDER BY ordinal_position`,
		schemaOrDefault(p.Schema), p.Table)
}

func fetchFunctions(p dialect.Params) string {
	return dialect.Raw(`SELECT DISTINCT schema_name AS "ROUTINE_SCHEMA", function_name AS "ROUTINE_NAME", return_type AS "DATA_TYPE" FROM duckdb_functions() WHERE schema_name = '%s' AND function_type = 'scalar' ORDER BY function_name`,
		schemaOrDefault(p.Schema))
}

func searchTables(p dialect.Params) string {
	filter := ""
	if p.Search != "" {
		filter = dialect.Raw(` WHERE table_name ILIKE '%%%s%%'`, p.Search)
	}
	return dialect.Raw(`SELECT table_schema AS "TABLE_SCHEMA", table_name AS "TABLE_NAME", table_type AS "TABLE_TYPE" FROM information_schema.tables%s ORDER BY table_name LIMIT %d`,
		filter, dialect.OrDefault(p.Limit, 100))
}

func searchColumns(p dialect.Params) string {
	conds := "1 = 1"
	if list := dialect.QuotedList(p.Tables); list != "" {
		conds += dialect.Raw(` AND LOWER(table_name) IN (%s)`, dialect.Lower(list))
	}
	if p.Search != "" {
		conds += dialect.Raw(` AND column_name ILIKE '%%%s%%'`, p.Search)
	}
	return dialect.Raw(`SELECT table_name AS "TABLE_NAME", column_name AS "COLUMN_NAME", data_type AS "DATA_TYPE" FROM information_schema.columns WHERE %s ORDER BY column_name, ordinal_position LIMIT %d`,
		conds, dialect.OrDefault(p.Limit, 100))
}

func describeTable(p dialect.Params) string {
	return dialect.Raw(`DESCRIBE %s`, dialect.Qualify(p.Schema, p.Table))
}

func fetchRecords(p dialect.Params) string {
	return dialect.Raw(`SELECT * FROM %s LIMIT %d OFFSET %d`,
		dialect.Qualify(p.Schema, p.Table), dialect.OrDefault(p.Limit, 50), dialect.OrDefault(p.Offset, 0))
}

func countRecords(p dialect.Params) string {
	return dialect.Raw(`SELECT count(1) AS total FROM %s`, dialect.Qualify(p.Schema, p.Table))
}

func schemaOrDefault(schema string) string {
	if schema == "" {
		return "main"
	}
	return schema
}
