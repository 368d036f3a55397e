// Package commands implements the sqlbatch subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbatch/internal/cli/config"
	"github.com/leapstack-labs/sqlbatch/internal/executor"
	"github.com/leapstack-labs/sqlbatch/internal/explorer"
	"github.com/leapstack-labs/sqlbatch/internal/history"
	"github.com/leapstack-labs/sqlbatch/internal/render"
	"github.com/leapstack-labs/sqlbatch/internal/session"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// configKey is used to store config in context.
type configKey struct{}

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithRenderer stores r in ctx.
func WithRenderer(ctx context.Context, r *render.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		RestrictUpdate: true,
		OutputFormat:   config.DefaultOutput,
		HistoryPath:    config.DefaultHistoryFile,
		Server:         config.ServerConfig{Listen: config.DefaultListen},
	}
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *render.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*render.Renderer); ok {
		return r
	}
	return render.NewRenderer(os.Stdout, os.Stderr, render.ModeAuto)
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *render.Renderer

	Session  *session.Session
	Pipeline *executor.Pipeline
	Explorer *explorer.Explorer

	// History is nil until OpenHistory succeeds.
	History *history.Store
}

// NewCommandContext opens a session for the configured connection and
// wires the pipeline and explorer to it.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutSession(cmd)
	if err := cc.Cfg.RequireConnection(); err != nil {
		return nil, nil, err
	}

	sess := session.New(cc.Cfg.ToConnectionConfig(), cc.Logger)
	if err := sess.Open(cmd.Context()); err != nil {
		return nil, nil, err
	}
	cc.Session = sess
	cc.Pipeline = executor.New(sess,
		executor.WithLogger(cc.Logger),
		executor.WithDBType(sess.DBType),
	)
	cc.Explorer = explorer.New(cc.Pipeline, sess.DBType)

	cleanup := func() {
		if cc.History != nil {
			_ = cc.History.Close()
		}
		if err := sess.Close(); err != nil {
			cc.Logger.Warn("failed to close session", "error", err)
		}
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutSession creates a CommandContext without a connection.
// Useful for commands that don't need database access.
func NewCommandContextWithoutSession(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	return &CommandContext{
		Cfg:      GetConfig(ctx),
		Logger:   config.GetLogger(ctx),
		Renderer: GetRenderer(ctx),
	}
}

// OpenHistory opens the history store. An empty history_path disables it.
func (c *CommandContext) OpenHistory() error {
	if c.History != nil || c.Cfg.HistoryPath == "" {
		return nil
	}
	store := history.NewStore(c.Logger)
	if err := store.Open(c.Cfg.HistoryPath); err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	c.History = store
	return nil
}

// Record writes envelopes to history when it is open. Failures are logged
// and never fail the command.
func (c *CommandContext) Record(ctx context.Context, envs []core.Envelope) {
	if c.History == nil || len(envs) == 0 {
		return
	}
	if err := c.History.Record(ctx, envs); err != nil {
		c.Logger.Warn("failed to record history", "error", err)
	}
}

// errStatementsFailed is returned after rendering when any statement failed.
var errStatementsFailed = errors.New("one or more statements failed")

// countFailed returns how many envelopes report an error.
func countFailed(envs []core.Envelope) int {
	n := 0
	for _, e := range envs {
		if e.IsError {
			n++
		}
	}
	return n
}
