// Package config provides configuration management for the sqlbatch CLI.
//
// Configuration is layered with koanf: built-in defaults, then sqlbatch.yaml,
// then SQLBATCH_ environment variables, then explicitly set command-line flags.
package config

import (
	"strings"
	"time"

	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// Config holds all CLI configuration options.
type Config struct {
	Connection     ConnectionConfig `koanf:"connection"`
	RestrictUpdate bool             `koanf:"restrict_update"`
	TrimResult     bool             `koanf:"trim_result"`
	PreviewLimit   int              `koanf:"preview_limit"`
	HistoryPath    string           `koanf:"history_path"`
	OutputFormat   string           `koanf:"output"`
	Verbose        bool             `koanf:"verbose"`
	Server         ServerConfig     `koanf:"server"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// ConnectionConfig describes the backend to connect to.
type ConnectionConfig struct {
	Driver           string            `koanf:"driver"`
	ConnectionString string            `koanf:"connection_string"`
	DBType           string            `koanf:"db_type"`
	Host             string            `koanf:"host"`
	Port             int               `koanf:"port"`
	Database         string            `koanf:"database"`
	User             string            `koanf:"user"`
	Password         string            `koanf:"password"`
	Path             string            `koanf:"path"`
	Options          map[string]string `koanf:"options"`
	Pool             PoolConfig        `koanf:"pool"`
}

// PoolConfig tunes the connection pool. Zero values fall back to the
// adapter defaults.
type PoolConfig struct {
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	PingTimeout     time.Duration `koanf:"ping_timeout"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Listen string `koanf:"listen"`
	Token  string `koanf:"token"`
}

// Default configuration values.
const (
	DefaultHistoryFile  = ".sqlbatch/history.db"
	DefaultOutput       = "auto"
	DefaultListen       = "127.0.0.1:8765"
	DefaultPreviewLimit = 0
)

// ConfigFileNames are searched in order when no --config is given.
var ConfigFileNames = []string{"sqlbatch.yaml", "sqlbatch.yml"}

// Defaults returns the default configuration values keyed for koanf.
func Defaults() map[string]any {
	return map[string]any{
		"restrict_update": true,
		"trim_result":     false,
		"preview_limit":   DefaultPreviewLimit,
		"history_path":    DefaultHistoryFile,
		"output":          DefaultOutput,
		"verbose":         false,
		"server.listen":   DefaultListen,
	}
}

// ResolvedDBType returns the query profile identifier. When db_type is unset the
// driver name is used, except for odbc which can reach any backend.
func (c ConnectionConfig) ResolvedDBType() string {
	if c.DBType != "" {
		return c.DBType
	}
	if strings.EqualFold(c.Driver, "odbc") {
		return ""
	}
	return c.Driver
}

// ToConnectionConfig converts the file representation into the shared
// connection settings consumed by adapters.
func (c *Config) ToConnectionConfig() core.ConnectionConfig {
	conn := c.Connection
	opts := make(map[string]string, len(conn.Options))
	for k, v := range conn.Options {
		opts[k] = v
	}
	return core.ConnectionConfig{
		Driver:           strings.ToLower(conn.Driver),
		ConnectionString: conn.ConnectionString,
		DBType:           conn.ResolvedDBType(),
		Path:             conn.Path,
		Host:             conn.Host,
		Port:             conn.Port,
		Database:         conn.Database,
		Username:         conn.User,
		Password:         conn.Password,
		Options:          opts,
		Pool: core.PoolOptions{
			MaxOpenConns:    conn.Pool.MaxOpenConns,
			MaxIdleConns:    conn.Pool.MaxIdleConns,
			ConnMaxLifetime: conn.Pool.ConnMaxLifetime,
			PingTimeout:     conn.Pool.PingTimeout,
		},
	}
}

// ExecOptions returns the configured execution options for requestID.
func (c *Config) ExecOptions(requestID string) core.Options {
	return core.Options{
		RequestID:      requestID,
		RestrictUpdate: c.RestrictUpdate,
		TrimResult:     c.TrimResult,
		PreviewLimit:   c.PreviewLimit,
	}
}
