// Package trim strips surrounding whitespace from string-like result columns.
package trim

import (
	"strings"

	"github.com/leapstack-labs/sqlbatch/pkg/core"
	"github.com/leapstack-labs/sqlbatch/pkg/sqltype"
)

// Apply returns rs with every string-like column value trimmed.
// When enabled is false or rs has no rows, rs itself is returned. Otherwise a
// new ResultSet is built and rs is left untouched. Values that are missing,
// nil or not strings pass through unchanged.
func Apply(rs *core.ResultSet, enabled bool) *core.ResultSet {
	if !enabled || rs.Len() == 0 {
		return rs
	}

	var cols []string
	for _, c := range rs.Columns {
		if sqltype.IsStringLike(c.TypeCode) {
			cols = append(cols, c.Name)
		}
	}
	if len(cols) == 0 {
		return rs
	}

	out := &core.ResultSet{
		Columns: rs.Columns,
		Rows:    make([]core.Row, len(rs.Rows)),
	}
	for i, row := range rs.Rows {
		trimmed := make(core.Row, len(row))
		for k, v := range row {
			trimmed[k] = v
		}
		for _, name := range cols {
			if s, ok := row[name].(string); ok {
				trimmed[name] = strings.TrimSpace(s)
			}
		}
		out.Rows[i] = trimmed
	}
	return out
}
