// Package sqlserver provides the query profile for Microsoft SQL Server.
//
// SQL Server limits rows with a TOP prefix or an ORDER BY ... FETCH clause,
// neither of which can be appended to an arbitrary statement, so the
// profile has no row-limit clause.
package sqlserver

import (
	"github.com/leapstack-labs/sqlbatch/pkg/dialect"
)

func init() {
	dialect.Register(Profile)
}

// Name is the registered identifier.
const Name = "sqlserver"

// Profile is the SQL Server query profile.
var Profile = &dialect.Profile{
	Name:    Name,
	Aliases: []string{"mssql", "sql server"},
	Queries: map[dialect.QueryName]dialect.Template{
		dialect.FetchDatabases: fetchDatabases,
		dialect.FetchSchemas:   fetchSchemas,
		dialect.FetchTables:    fetchTables("BASE TABLE"),
		dialect.FetchViews:     fetchTables("VIEW"),
		dialect.FetchColumns:   fetchColumns,
		dialect.FetchFunctions: fetchFunctions,
		dialect.SearchTables:   searchTables,
		dialect.SearchColumns:  searchColumns,
		dialect.DescribeTable:  fetchColumns,
		dialect.FetchRecords:   fetchRecords,
		dialect.CountRecords:   countRecords,
	},
}

func fetchDatabases(dialect.Params) string {
	return `SELECT name AS DATABASE FROM sys.databases WHERE state = 0 ORDER BY name`
}

func fetchSchemas(p dialect.Params) string {
	return dialect.Raw(`SELECT SCHEMA_NAME AS TABLE_SCHEMA FROM %sINFORMATION_SCHEMA.SCHEMATA ORDER BY SCHEMA_NAME`, catalogPrefix(p.Database))
}

func fetchTables(tableType string) dialect.Template {
	return func(p dialect.Params) string {
		return dialect.Raw(`SELECT TABLE_SCHEMA, TABLE_NAME FROM %sINFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = '%s' AND TABLE_SCHEMA = '%s' ORDER BY TABLE_NAME`,
			catalogPrefix(p.Database), tableType, p.Schema)
	}
}

func fetchColumns(p dialect.Params) string {
	return dialect.Raw(`SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, ORDINAL_POSITION FROM %sINFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = '%s' AND TABLE_NAME = '%s' ORDER BY ORDINAL_POSITION`,
		catalogPrefix(p.Database), schemaOrDefault(p.Schema), p.Table)
}

func fetchFunctions(p dialect.Params) string {
	return dialect.Raw(`SELECT ROUTINE_SCHEMA, ROUTINE_NAME, DATA_TYPE FROM %sINFORMATION_SCHEMA.ROUTINES WHERE ROUTINE_TYPE = 'FUNCTION' AND ROUTINE_SCHEMA = '%s' ORDER BY ROUTINE_NAME`,
		catalogPrefix(p.Database), schemaOrDefault(p.Schema))
}

func searchTables(p dialect.Params) string {
	filter := ""
	if p.Search != "" {
		filter = dialect.Raw(` WHERE LOWER(TABLE_NAME) LIKE '%%%s%%'`, dialect.Lower(p.Search))
	}
	return dialect.Raw(`SELECT TOP %d TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE FROM INFORMATION_SCHEMA.TABLES%s ORDER BY TABLE_NAME`,
		dialect.OrDefault(p.Limit, 100), filter)
}

func searchColumns(p dialect.Params) string {
	conds := "1 = 1"
	if list := dialect.QuotedList(p.Tables); list != "" {
		conds += dialect.Raw(` AND LOWER(TABLE_NAME) IN (%s)`, dialect.Lower(list))
	}
	if p.Search != "" {
		conds += dialect.Raw(` AND LOWER(COLUMN_NAME) LIKE '%%%s%%'`, dialect.Lower(p.Search))
	}
	return dialect.Raw(`SELECT TOP %d TABLE_NAME, COLUMN_NAME, DATA_TYPE FROM INFORMATION_SCHEMA.COLUMNS WHERE %s ORDER BY COLUMN_NAME, ORDINAL_POSITION`,
		dialect.OrDefault(p.Limit, 100), conds)
}

func fetchRecords(p dialect.Params) string {
	return dialect.Raw(`SELECT * FROM %s ORDER BY (SELECT NULL) OFFSET %d ROWS FETCH NEXT %d ROWS ONLY`,
		dialect.Qualify(p.Schema, p.Table), dialect.OrDefault(p.Offset, 0), dialect.OrDefault(p.Limit, 50))
}

func countRecords(p dialect.Params) string {
	return dialect.Raw(`SELECT COUNT(1) AS total FROM %s`, dialect.Qualify(p.Schema, p.Table))
}

func catalogPrefix(database string) string {
	if database == "" {
		return ""
	}
	return database + "."
}

func schemaOrDefault(schema string) string {
	if schema == "" {
		return "dbo"
	}
	return schema
}
