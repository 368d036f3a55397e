package dialect

import (
	"fmt"
	"strings"
)

// Raw assembles SQL text by plain interpolation.
//
// Caller values (schema, table and column names, search strings) are inserted
// verbatim with no quoting or escaping, so templates built on Raw are open to
// SQL injection. Every template goes through this function so the unsafe
// boundary stays in one place; do not use it for values from untrusted input.
func Raw(format string, args ...any) string {
	return fmt.Sprintf(format, args...) //nolint:gosec // raw SQL assembly, see doc comment
}

// Lower lower-cases a value for case-insensitive LIKE matching.
func Lower(s string) string {
	return strings.ToLower(s)
}

// QuotedList renders values as a comma-separated list of quoted literals,
// skipping empty values.
func QuotedList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		quoted = append(quoted, "'"+v+"'")
	}
	return strings.Join(quoted, ", ")
}

// Qualify joins schema and table with a dot when schema is set.
func Qualify(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}

// OrDefault returns v, or def when v is not positive.
func OrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
