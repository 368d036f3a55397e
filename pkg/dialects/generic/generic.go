// Package generic provides the default query profile.
//
// The templates target SQLite-style catalogs (sqlite_master and the
// pragma_table_info table-valued function). Unknown dialect identifiers
// resolve to this profile.
package generic

import (
	"github.com/leapstack-labs/sqlbatch/pkg/dialect"
)

func init() {
	dialect.Register(Profile)
}

// Name is the registered identifier.
const Name = dialect.DefaultName

// Context values reported in the "type" column of introspection results.
const (
	typeTable  = "connection.table"
	typeView   = "connection.view"
	typeColumn = "connection.column"
)

// Profile is the generic query profile.
var Profile = &dialect.Profile{
	Name:    Name,
	Aliases: []string{"sqlite", "default"},
	Queries: map[dialect.QueryName]dialect.Template{
		dialect.DescribeTable: describeTable,
		dialect.FetchColumns:  fetchColumns,
		dialect.FetchRecords:  fetchRecords,
		dialect.CountRecords:  countRecords,
		dialect.FetchTables:   fetchTablesAndViews(typeTable, "table"),
		dialect.FetchViews:    fetchTablesAndViews(typeView, "view"),
		dialect.SearchTables:  searchTables,
		dialect.SearchColumns: searchColumns,
	},
}

func describeTable(p dialect.Params) string {
	return dialect.Raw(`
SELECT C.*
FROM pragma_table_info('%s') AS C
ORDER BY C.cid ASC
`, p.Table)
}

func fetchColumns(p dialect.Params) string {
	return dialect.Raw(`
SELECT C.name AS label,
  C.*,
  C.type AS dataType,
  C."notnull" AS isNullable,
  C.pk AS isPk,
  '%s' as type
FROM pragma_table_info('%s') AS C
ORDER BY cid ASC
`, typeColumn, p.Table)
}

func fetchRecords(p dialect.Params) string {
	return dialect.Raw(`
SELECT *
FROM %s
LIMIT %d
OFFSET %d;
`, p.Table, dialect.OrDefault(p.Limit, 50), dialect.OrDefault(p.Offset, 0))
}

func countRecords(p dialect.Params) string {
	return dialect.Raw(`
SELECT count(1) AS total
FROM %s;
`, p.Table)
}

func fetchTablesAndViews(contextType, tableType string) dialect.Template {
	return func(dialect.Params) string {
		return dialect.Raw(`
SELECT name AS label,
  '%s' AS type
FROM sqlite_master
WHERE LOWER(type) LIKE '%s'
  AND name NOT LIKE 'sqlite_%%'
ORDER BY name
`, contextType, dialect.Lower(tableType))
	}
}

func searchTables(p dialect.Params) string {
	where := ""
	if p.Search != "" {
		where = dialect.Raw(`WHERE LOWER(name) LIKE '%%%s%%'`, dialect.Lower(p.Search))
	}
	return dialect.Raw(`
SELECT name AS label,
  type
FROM sqlite_master
%s
ORDER BY name
`, where)
}

func searchColumns(p dialect.Params) string {
	tables := ""
	if list := dialect.QuotedList(p.Tables); list != "" {
		tables = dialect.Raw(`AND LOWER(T.name) IN (%s)`, dialect.Lower(list))
	}
	search := ""
	if p.Search != "" {
		s := dialect.Lower(p.Search)
		search = dialect.Raw(`AND (
    LOWER(T.name || '.' || C.name) LIKE '%%%s%%'
    OR LOWER(C.name) LIKE '%%%s%%'
  )`, s, s)
	}
	return dialect.Raw(`
SELECT C.name AS label,
  T.name AS "table",
  C.type AS dataType,
  C."notnull" AS isNullable,
  C.pk AS isPk,
  '%s' as type
FROM sqlite_master AS T
LEFT OUTER JOIN pragma_table_info((T.name)) AS C ON 1 = 1
WHERE 1 = 1
%s
%s
ORDER BY C.name ASC,
  C.cid ASC
LIMIT %d
`, typeColumn, tables, search, dialect.OrDefault(p.Limit, 100))
}
