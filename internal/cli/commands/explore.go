package commands

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbatch/internal/explorer"
	"github.com/leapstack-labs/sqlbatch/internal/render"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// NewExploreCommand creates the explore command and its subcommands.
func NewExploreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "explore",
		Aliases: []string{"x"},
		Short:   "Browse databases, tables and columns",
		Long: `Browse the connected database using the catalog queries of its dialect.

Queries a dialect does not define return an empty list.`,
	}

	var database, schema string
	cmd.PersistentFlags().StringVar(&database, "database", "", "Database (catalog) to browse")
	cmd.PersistentFlags().StringVar(&schema, "schema", "", "Schema to browse (default: the dialect's default schema)")

	cmd.AddCommand(
		exploreCmd("databases", "List databases", cobra.NoArgs,
			func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
				dbs, err := cc.Explorer.Databases(cmd.Context())
				if err != nil {
					return err
				}
				return renderDatabases(cc.Renderer, dbs)
			}),
		exploreCmd("schemas", "List schemas", cobra.NoArgs,
			func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
				schemas, err := cc.Explorer.Schemas(cmd.Context(), database)
				if err != nil {
					return err
				}
				rows := make([][]any, len(schemas))
				for i, s := range schemas {
					rows[i] = []any{s}
				}
				return cc.Renderer.Value(schemas, []string{"schema"}, rows)
			}),
		exploreCmd("tables", "List tables", cobra.NoArgs,
			func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
				tables, err := cc.Explorer.Tables(cmd.Context(), database, schema)
				if err != nil {
					return err
				}
				return renderTables(cc.Renderer, tables)
			}),
		exploreCmd("views", "List views", cobra.NoArgs,
			func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
				views, err := cc.Explorer.Views(cmd.Context(), database, schema)
				if err != nil {
					return err
				}
				return renderTables(cc.Renderer, views)
			}),
		exploreCmd("columns <table>", "List the columns of a table", cobra.ExactArgs(1),
			func(cc *CommandContext, cmd *cobra.Command, args []string) error {
				s, table := qualify(schema, args[0])
				cols, err := cc.Explorer.Columns(cmd.Context(), database, s, table)
				if err != nil {
					return err
				}
				return renderColumns(cc.Renderer, cols)
			}),
		exploreCmd("functions", "List user functions", cobra.NoArgs,
			func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
				rows, err := cc.Explorer.Functions(cmd.Context(), database, schema)
				if err != nil {
					return err
				}
				return renderRows(cc.Renderer, rows)
			}),
		exploreCmd("describe <table>", "Describe a table", cobra.ExactArgs(1),
			func(cc *CommandContext, cmd *cobra.Command, args []string) error {
				s, table := qualify(schema, args[0])
				rows, err := cc.Explorer.Describe(cmd.Context(), s, table)
				if err != nil {
					return err
				}
				return renderRows(cc.Renderer, rows)
			}),
		exploreCmd("count <table>", "Count the rows of a table", cobra.ExactArgs(1),
			func(cc *CommandContext, cmd *cobra.Command, args []string) error {
				s, table := qualify(schema, args[0])
				n, err := cc.Explorer.Count(cmd.Context(), s, table)
				if err != nil {
					return err
				}
				return cc.Renderer.Value(map[string]int64{"total": n}, []string{"total"}, [][]any{{n}})
			}),
		newRecordsCommand(&schema),
		newSearchCommand(),
	)
	return cmd
}

type exploreFunc func(cc *CommandContext, cmd *cobra.Command, args []string) error

// exploreCmd builds a subcommand that runs fn with an open session.
func exploreCmd(use, short string, args cobra.PositionalArgs, fn exploreFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return fn(cc, cmd, args)
		},
	}
}

func newRecordsCommand(schema *string) *cobra.Command {
	var limit, offset int
	cmd := exploreCmd("records <table>", "Show one page of table rows", cobra.ExactArgs(1),
		func(cc *CommandContext, cmd *cobra.Command, args []string) error {
			s, table := qualify(*schema, args[0])
			env, err := cc.Explorer.Records(cmd.Context(), s, table, limit, offset)
			if err != nil {
				return err
			}
			if env == nil {
				return cc.Renderer.Envelopes([]core.Envelope{})
			}
			return cc.Renderer.Envelopes([]core.Envelope{*env})
		})
	cmd.Flags().IntVar(&limit, "limit", 0, "Rows per page (default: dialect default)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	return cmd
}

func newSearchCommand() *cobra.Command {
	var columns bool
	var limit int
	var tables []string
	cmd := exploreCmd("search <text>", "Search tables or columns by name", cobra.ExactArgs(1),
		func(cc *CommandContext, cmd *cobra.Command, args []string) error {
			if columns {
				cols, err := cc.Explorer.SearchColumns(cmd.Context(), args[0], tables, limit)
				if err != nil {
					return err
				}
				return renderColumns(cc.Renderer, cols)
			}
			found, err := cc.Explorer.SearchTables(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return renderTables(cc.Renderer, found)
		})
	cmd.Flags().BoolVar(&columns, "columns", false, "Search column names instead of table names")
	cmd.Flags().StringSliceVar(&tables, "table", nil, "Restrict a column search to these tables")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum matches (default: dialect default)")
	return cmd
}

// qualify splits a schema-qualified table name unless schema was given.
func qualify(schema, name string) (string, string) {
	s, table := splitQualified(name)
	if schema != "" || s == "" {
		return schema, name
	}
	return s, table
}

func renderDatabases(r *render.Renderer, dbs []explorer.Database) error {
	rows := make([][]any, len(dbs))
	for i, d := range dbs {
		rows[i] = []any{d.Name}
	}
	return r.Value(dbs, []string{"database"}, rows)
}

func renderTables(r *render.Renderer, tables []explorer.Table) error {
	rows := make([][]any, len(tables))
	for i, t := range tables {
		rows[i] = []any{t.Schema, t.Name, t.Type}
	}
	return r.Value(tables, []string{"schema", "name", "type"}, rows)
}

func renderColumns(r *render.Renderer, cols []explorer.Column) error {
	rows := make([][]any, len(cols))
	for i, c := range cols {
		rows[i] = []any{c.Table, c.Name, c.DataType, c.Nullable}
	}
	return r.Value(cols, []string{"table", "column", "type", "nullable"}, rows)
}

// renderRows renders raw catalog rows with their keys as the header.
func renderRows(r *render.Renderer, rows []core.Row) error {
	keys := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			keys[k] = true
		}
	}
	header := make([]string, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}
	sort.Slice(header, func(i, j int) bool {
		return strings.ToLower(header[i]) < strings.ToLower(header[j])
	})

	out := make([][]any, len(rows))
	for i, row := range rows {
		vals := make([]any, len(header))
		for j, k := range header {
			vals[j] = row[k]
		}
		out[i] = vals
	}
	return r.Value(rows, header, out)
}
