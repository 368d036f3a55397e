package duckdb

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific connection options.
// Parsed from core.ConnectionConfig.Options using mapstructure.
type Params struct {
	// Extensions to install and load, given as a comma-separated list
	// (e.g. "httpfs,json").
	Extensions []string `mapstructure:"extensions"`

	// Settings applied with SET at connect time (e.g. memory_limit, threads).
	Settings map[string]string `mapstructure:",remain"`
}

// ParseParams decodes connection options into Params.
func ParseParams(options map[string]string) (*Params, error) {
	p := &Params{}
	if len(options) == 0 {
		return p, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToSliceHookFunc(","),
		Result:     p,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("invalid duckdb options: %w", err)
	}
	return p, nil
}

// SetupStatements returns the statements run after connecting.
// Settings are emitted in key order.
func (p *Params) SetupStatements() []string {
	var stmts []string
	for _, ext := range p.Extensions {
		if ext == "" {
			continue
		}
		stmts = append(stmts, fmt.Sprintf("INSTALL %s", ext), fmt.Sprintf("LOAD %s", ext))
	}

	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", k, p.Settings[k]))
	}
	return stmts
}
