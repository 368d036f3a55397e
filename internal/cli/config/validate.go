package config

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqlbatch/internal/render"
	"github.com/leapstack-labs/sqlbatch/pkg/adapter"
)

// Validate checks if the configuration is valid.
// An empty driver is allowed so that commands without database access work.
func (c *Config) Validate() error {
	if _, err := render.ParseMode(c.OutputFormat); err != nil {
		return fmt.Errorf("invalid output: %w", err)
	}
	if c.PreviewLimit < 0 {
		return errors.New("preview_limit must not be negative")
	}
	if c.Connection.Port < 0 || c.Connection.Port > 65535 {
		return fmt.Errorf("connection.port %d is out of range", c.Connection.Port)
	}
	if d := c.Connection.Driver; d != "" && !adapter.IsRegistered(d) {
		return &adapter.UnknownAdapterError{Driver: d, Available: adapter.ListAdapters()}
	}
	return nil
}

// RequireConnection checks that a driver has been configured.
func (c *Config) RequireConnection() error {
	if c.Connection.Driver == "" {
		return errors.New("no connection configured\nHint: Set connection.driver in sqlbatch.yaml or pass --driver")
	}
	return nil
}
