package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/sqlbatch/pkg/dialect"
)

func TestQueries(t *testing.T) {
	tests := []struct {
		name   string
		query  dialect.QueryName
		params dialect.Params
		want   string
	}{
		{"databases", dialect.FetchDatabases, dialect.Params{}, "FROM pg_database"},
		{"tables default schema", dialect.FetchTables, dialect.Params{}, "table_schema = 'public'"},
		{"columns", dialect.FetchColumns, dialect.Params{Schema: "sales", Table: "orders"}, "table_schema = 'sales' AND table_name = 'orders'"},
		{"records", dialect.FetchRecords, dialect.Params{Table: "orders", Limit: 5, Offset: 15}, "FROM orders LIMIT 5 OFFSET 15"},
		{"search columns", dialect.SearchColumns, dialect.Params{Search: "id", Tables: []string{"Orders"}}, "LOWER(table_name) IN ('orders') AND column_name ILIKE '%id%'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, ok := Profile.Build(tt.query, tt.params)
			assert.True(t, ok)
			assert.Contains(t, sql, tt.want)
		})
	}
}
