package dialect

import (
	"sort"
	"strings"
	"sync"
)

// DefaultName is the profile used for unknown identifiers.
const DefaultName = "generic"

// Dialect registry
var (
	profilesMu sync.RWMutex
	profiles   = make(map[string]*Profile)
	names      = make(map[string]struct{})
)

// Register registers a profile under its name and aliases.
// Called by dialect implementations in their init() functions.
// Panics when the profile lacks fetchTables or fetchColumns.
func Register(p *Profile) {
	if err := p.validate(); err != nil {
		panic(err)
	}
	profilesMu.Lock()
	defer profilesMu.Unlock()
	profiles[strings.ToLower(p.Name)] = p
	names[strings.ToLower(p.Name)] = struct{}{}
	for _, alias := range p.Aliases {
		profiles[strings.ToLower(alias)] = p
	}
}

// Get returns a profile by name or alias.
func Get(name string) (*Profile, bool) {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Resolve returns the profile for dbType, falling back to the generic profile.
// Nothing is cached: each call consults the registry.
func Resolve(dbType string) *Profile {
	if p, ok := Get(dbType); ok {
		return p
	}
	if p, ok := Get(DefaultName); ok {
		return p
	}
	return fallback
}

// List returns all registered profile names (sorted), without aliases.
func List() []string {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// fallback is used when no generic profile was registered. It only supports
// the two mandatory queries against the SQL standard information schema.
var fallback = &Profile{
	Name: DefaultName,
	Queries: map[QueryName]Template{
		FetchTables: func(p Params) string {
			return Raw(`SELECT table_name AS TABLE_NAME FROM information_schema.tables WHERE table_schema = '%s'`, p.Schema)
		},
		FetchColumns: func(p Params) string {
			return Raw(`SELECT column_name AS COLUMN_NAME, data_type AS DATA_TYPE FROM information_schema.columns WHERE table_schema = '%s' AND table_name = '%s'`, p.Schema, p.Table)
		},
	},
}
