// Package as400 provides the query profile for IBM i (AS/400) Db2.
//
// Catalog queries read the QSYS2 system views. Row limiting uses the
// "fetch first N rows only" clause.
package as400

import (
	"github.com/leapstack-labs/sqlbatch/pkg/dialect"
)

func init() {
	dialect.Register(Profile)
}

// Name is the registered identifier.
const Name = "as400"

// DBType is the database type string reported by iSeries connections.
const DBType = "ibm iSeries (AS400)"

// Profile is the AS/400 query profile.
var Profile = &dialect.Profile{
	Name:    Name,
	Aliases: []string{DBType, "db2i", "iseries"},
	Queries: map[dialect.QueryName]dialect.Template{
		dialect.FetchDatabases: fetchDatabases,
		dialect.FetchTables:    fetchTables,
		dialect.FetchViews:     fetchViews,
		dialect.FetchColumns:   fetchColumns,
		dialect.SearchTables:   searchTables,
		dialect.FetchRecords:   fetchRecords,
		dialect.CountRecords:   countRecords,
	},
	RowLimit: rowLimit,
}

func rowLimit(n int) string {
	return dialect.Raw(" fetch first %d rows only", n)
}

func fetchDatabases(dialect.Params) string {
	return `
    select distinct table_schema as DATABASE from qsys2.SYSTABLES where table_type = 'T'
  `
}

func fetchTables(p dialect.Params) string {
	return dialect.Raw(`
    select distinct table_name from QSYS2.SYSTABLES where table_schema = '%s'
  `, p.Schema)
}

func fetchViews(p dialect.Params) string {
	return dialect.Raw(`
    select distinct table_name from QSYS2.SYSTABLES where table_schema = '%s' and table_type = 'V'
  `, p.Schema)
}

// fetchColumns filters by library. The schema names the library; callers
// that only know the database pass it there instead.
func fetchColumns(p dialect.Params) string {
	library := p.Schema
	if library == "" {
		library = p.Database
	}
	return dialect.Raw(`
    select column_name, data_type from QSYS2.syscolumns where 
    table_schema = '%s' and table_name = '%s' 
  `, library, p.Table)
}

func searchTables(p dialect.Params) string {
	filter := ""
	if p.Search != "" {
		filter = dialect.Raw(` and lower(table_name) like '%%%s%%'`, dialect.Lower(p.Search))
	}
	return dialect.Raw(`
    select table_schema, table_name from QSYS2.SYSTABLES where table_type in ('T', 'V')%s
    order by table_name fetch first %d rows only
  `, filter, dialect.OrDefault(p.Limit, 100))
}

func fetchRecords(p dialect.Params) string {
	return dialect.Raw(`
    select * from %s offset %d rows fetch first %d rows only
  `, dialect.Qualify(p.Schema, p.Table), dialect.OrDefault(p.Offset, 0), dialect.OrDefault(p.Limit, 50))
}

func countRecords(p dialect.Params) string {
	return dialect.Raw(`
    select count(1) as TOTAL from %s
  `, dialect.Qualify(p.Schema, p.Table))
}
