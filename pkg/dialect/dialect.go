// Package dialect provides per-database query profiles.
//
// A Profile maps logical introspection queries (fetchTables, fetchColumns, ...)
// to template functions and carries the dialect's row-limiting clause. Concrete
// profiles are registered from pkg/dialects/*/ packages.
package dialect

import "fmt"

// QueryName identifies a logical introspection query.
type QueryName string

// Logical query names.
const (
	FetchDatabases QueryName = "fetchDatabases"
	FetchSchemas   QueryName = "fetchSchemas"
	FetchTables    QueryName = "fetchTables"
	FetchViews     QueryName = "fetchViews"
	FetchColumns   QueryName = "fetchColumns"
	FetchFunctions QueryName = "fetchFunctions"
	SearchTables   QueryName = "searchTables"
	SearchColumns  QueryName = "searchColumns"
	DescribeTable  QueryName = "describeTable"
	FetchRecords   QueryName = "fetchRecords"
	CountRecords   QueryName = "countRecords"
)

// Params are the caller-supplied values a template may interpolate.
type Params struct {
	Database string
	Schema   string
	Table    string
	Search   string
	Tables   []string
	Limit    int
	Offset   int
}

// Template renders SQL text for params.
type Template func(p Params) string

// Profile is the immutable query set of one database family.
type Profile struct {
	Name    string
	Aliases []string

	// Queries holds the supported templates. A missing entry means the
	// dialect does not support that query.
	Queries map[QueryName]Template

	// RowLimit renders a clause appended to statements to cap their rows.
	// Nil for dialects without a distinct row-limit clause.
	RowLimit func(n int) string
}

// Build renders the named query. The second result is false when the
// profile does not support the query.
func (p *Profile) Build(name QueryName, params Params) (string, bool) {
	tmpl, ok := p.Queries[name]
	if !ok || tmpl == nil {
		return "", false
	}
	return tmpl(params), true
}

// Supports reports whether the profile defines name.
func (p *Profile) Supports(name QueryName) bool {
	tmpl, ok := p.Queries[name]
	return ok && tmpl != nil
}

// validate enforces the queries every profile must define.
func (p *Profile) validate() error {
	if p.Name == "" {
		return fmt.Errorf("dialect profile has no name")
	}
	for _, required := range []QueryName{FetchTables, FetchColumns} {
		if !p.Supports(required) {
			return fmt.Errorf("dialect %q does not define %s", p.Name, required)
		}
	}
	return nil
}

// SuffixFor returns the row-limiting clause for limit under p.
// It is empty when limit is not positive or the dialect has no clause.
func SuffixFor(p *Profile, limit int) string {
	if p == nil || limit <= 0 || p.RowLimit == nil {
		return ""
	}
	return p.RowLimit(limit)
}
