package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/sqlbatch/pkg/adapter"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   core.ConnectionConfig
		expected string
	}{
		{
			name: "basic connection",
			config: core.ConnectionConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "testdb",
				Username: "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=testdb sslmode=disable user=user password=pass",
		},
		{
			name: "with custom sslmode",
			config: core.ConnectionConfig{
				Host:     "prod.example.com",
				Port:     5432,
				Database: "proddb",
				Username: "admin",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=prod.example.com port=5432 dbname=proddb sslmode=require user=admin",
		},
		{
			name: "extra options sorted",
			config: core.ConnectionConfig{
				Database: "app",
				Options: map[string]string{
					"search_path":      "reporting",
					"application_name": "sqlbatch",
					"sslmode":          "verify-full",
				},
			},
			expected: "host=localhost port=5432 dbname=app sslmode=verify-full application_name=sqlbatch search_path=reporting",
		},
		{
			name:     "defaults",
			config:   core.ConnectionConfig{Database: "mydb"},
			expected: "host=localhost port=5432 dbname=mydb sslmode=disable",
		},
		{
			name: "custom port",
			config: core.ConnectionConfig{
				Host:     "db.example.com",
				Port:     5433,
				Database: "analytics",
				Username: "analyst",
			},
			expected: "host=db.example.com port=5433 dbname=analytics sslmode=disable user=analyst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestConnect_RequiresReachableServer(t *testing.T) {
	a := New(nil)
	err := a.Connect(t.Context(), core.ConnectionConfig{
		ConnectionString: "host=127.0.0.1 port=1 dbname=none sslmode=disable connect_timeout=1",
	})
	assert.Error(t, err)
	assert.False(t, a.IsConnected())
}

func TestRegistered(t *testing.T) {
	assert.True(t, adapter.IsRegistered(Name))
	assert.Equal(t, Name, New(nil).Name())
}
