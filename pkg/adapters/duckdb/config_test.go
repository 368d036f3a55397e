package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]string
		want  *Params
	}{
		{
			name:  "nil options returns empty struct",
			input: nil,
			want:  &Params{},
		},
		{
			name:  "extensions only",
			input: map[string]string{"extensions": "httpfs,json"},
			want:  &Params{Extensions: []string{"httpfs", "json"}},
		},
		{
			name:  "settings only",
			input: map[string]string{"memory_limit": "4GB", "threads": "4"},
			want: &Params{Settings: map[string]string{
				"memory_limit": "4GB",
				"threads":      "4",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Extensions, got.Extensions)
			if len(tt.want.Settings) > 0 {
				assert.Equal(t, tt.want.Settings, got.Settings)
			} else {
				assert.Empty(t, got.Settings)
			}
		})
	}
}

func TestSetupStatements(t *testing.T) {
	p := &Params{
		Extensions: []string{"httpfs", ""},
		Settings:   map[string]string{"threads": "4", "memory_limit": "1GB"},
	}

	assert.Equal(t, []string{
		"INSTALL httpfs",
		"LOAD httpfs",
		"SET memory_limit = '1GB'",
		"SET threads = '4'",
	}, p.SetupStatements())
}
