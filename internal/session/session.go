// Package session owns the lifetime of one backend connection pool.
//
// A Session is opened from a core.ConnectionConfig, hands out connections to
// the execution pipeline and is closed explicitly by its owner.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/leapstack-labs/sqlbatch/pkg/adapter"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// Session is an open backend plus its identity.
type Session struct {
	mu      sync.Mutex
	id      string
	cfg     core.ConnectionConfig
	adapter adapter.Adapter
	logger  *slog.Logger
}

// New creates a closed session for cfg.
// If logger is nil, a discard logger is used.
func New(cfg core.ConnectionConfig, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		logger: logger,
	}
}

// Open creates the configured adapter and connects it.
// Opening an already open session is a no-op.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter != nil {
		return nil
	}

	a, err := adapter.NewAdapter(s.cfg, s.logger)
	if err != nil {
		return &core.ConnectionError{Driver: s.cfg.Driver, Err: err}
	}
	return s.connect(ctx, a)
}

// OpenWith connects a caller-supplied adapter instead of a registered one.
func (s *Session) OpenWith(ctx context.Context, a adapter.Adapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter != nil {
		return nil
	}
	return s.connect(ctx, a)
}

func (s *Session) connect(ctx context.Context, a adapter.Adapter) error {
	if err := a.Connect(ctx, s.cfg); err != nil {
		return &core.ConnectionError{Driver: s.cfg.Driver, Err: err}
	}
	s.adapter = a
	s.logger.Info("session opened",
		slog.String("session_id", s.id),
		slog.String("driver", a.Name()),
		slog.String("db_type", s.cfg.DBType))
	return nil
}

// Close releases the backend. Closing a closed session is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter == nil {
		return nil
	}
	err := s.adapter.Close()
	s.adapter = nil
	s.logger.Info("session closed", slog.String("session_id", s.id))
	return err
}

// Acquire returns a connection from the open backend.
// Every failure is reported as a *core.ConnectionError.
func (s *Session) Acquire(ctx context.Context) (adapter.Conn, error) {
	s.mu.Lock()
	a := s.adapter
	s.mu.Unlock()

	if a == nil {
		return nil, &core.ConnectionError{Driver: s.cfg.Driver, Err: core.ErrNotConnected}
	}
	conn, err := a.Acquire(ctx)
	if err != nil {
		var connErr *core.ConnectionError
		if errors.As(err, &connErr) {
			return nil, err
		}
		return nil, &core.ConnectionError{Driver: s.cfg.Driver, Err: err}
	}
	return conn, nil
}

// ID identifies the session in result envelopes.
func (s *Session) ID() string {
	return s.id
}

// DBType returns the configured database type used to pick a query profile.
func (s *Session) DBType() string {
	return s.cfg.DBType
}

// Config returns the session's connection settings.
func (s *Session) Config() core.ConnectionConfig {
	return s.cfg
}

// IsOpen reports whether the backend is connected.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adapter != nil
}

// Ping checks the open backend.
func (s *Session) Ping(ctx context.Context) error {
	s.mu.Lock()
	a := s.adapter
	s.mu.Unlock()

	if a == nil {
		return core.ErrNotConnected
	}
	return a.Ping(ctx)
}

// TestConnection opens cfg, pings it and closes it again.
func TestConnection(ctx context.Context, cfg core.ConnectionConfig, logger *slog.Logger) error {
	s := New(cfg, logger)
	if err := s.Open(ctx); err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Ping(ctx); err != nil {
		return &core.ConnectionError{Driver: cfg.Driver, Err: err}
	}
	return nil
}
