package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbatch/pkg/dialect"
)

// allQueries is the display order of catalog queries.
var allQueries = []dialect.QueryName{
	dialect.FetchDatabases,
	dialect.FetchSchemas,
	dialect.FetchTables,
	dialect.FetchViews,
	dialect.FetchColumns,
	dialect.FetchFunctions,
	dialect.SearchTables,
	dialect.SearchColumns,
	dialect.DescribeTable,
	dialect.FetchRecords,
	dialect.CountRecords,
}

// DialectInfo describes one registered dialect.
type DialectInfo struct {
	Name     string   `json:"name" yaml:"name"`
	Aliases  []string `json:"aliases" yaml:"aliases"`
	RowLimit string   `json:"rowLimit,omitempty" yaml:"rowLimit,omitempty"`
	Queries  []string `json:"queries" yaml:"queries"`
}

// ListDialects describes every registered dialect.
func ListDialects() []DialectInfo {
	names := dialect.List()
	out := make([]DialectInfo, 0, len(names))
	for _, name := range names {
		p, ok := dialect.Get(name)
		if !ok {
			continue
		}
		info := DialectInfo{
			Name:     p.Name,
			Aliases:  append([]string{}, p.Aliases...),
			RowLimit: strings.TrimSpace(dialect.SuffixFor(p, 1)),
			Queries:  []string{},
		}
		for _, q := range allQueries {
			if p.Supports(q) {
				info.Queries = append(info.Queries, string(q))
			}
		}
		out = append(out, info)
	}
	return out
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List supported database dialects",
		Long: `List the registered query dialects, their aliases and the catalog
queries each one supports. Unknown database types use the generic dialect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutSession(cmd)
			infos := ListDialects()
			rows := make([][]any, len(infos))
			for i, d := range infos {
				rows[i] = []any{d.Name, strings.Join(d.Aliases, ", "), d.RowLimit, len(d.Queries)}
			}
			return cc.Renderer.Value(infos, []string{"name", "aliases", "row limit", "queries"}, rows)
		},
	}
}
