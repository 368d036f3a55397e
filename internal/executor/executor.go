// Package executor runs multi-statement SQL scripts against one connection
// and turns every statement into a result envelope.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/sqlbatch/pkg/adapter"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
	"github.com/leapstack-labs/sqlbatch/pkg/dialect"
	"github.com/leapstack-labs/sqlbatch/pkg/guard"
	"github.com/leapstack-labs/sqlbatch/pkg/sqltext"
	"github.com/leapstack-labs/sqlbatch/pkg/trim"
)

// Connector hands out connections for one script run.
// *session.Session satisfies it.
type Connector interface {
	Acquire(ctx context.Context) (adapter.Conn, error)
	ID() string
}

// Pipeline executes scripts. It holds no per-run state and is safe for
// concurrent use when the Connector is.
type Pipeline struct {
	connector Connector
	dbType    func() string
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDBType sets the source of the dialect identifier. It is read on every
// run so a changed identifier takes effect immediately.
func WithDBType(dbType func() string) Option {
	return func(p *Pipeline) {
		if dbType != nil {
			p.dbType = dbType
		}
	}
}

// WithClock overrides the message timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator overrides the result id source.
func WithIDGenerator(newID func() string) Option {
	return func(p *Pipeline) {
		if newID != nil {
			p.newID = newID
		}
	}
}

// New creates a pipeline over connector.
func New(connector Connector, opts ...Option) *Pipeline {
	p := &Pipeline{
		connector: connector,
		dbType:    func() string { return "" },
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Execute runs every statement of script in order and returns one envelope
// per statement. Statement failures and rejections become failure envelopes
// and never stop the batch. The only returned error is a
// *core.ConnectionError when no connection could be acquired.
func (p *Pipeline) Execute(ctx context.Context, script string, opts core.Options) ([]core.Envelope, error) {
	conn, err := p.connector.Acquire(ctx)
	if err != nil {
		var connErr *core.ConnectionError
		if !errors.As(err, &connErr) {
			err = &core.ConnectionError{Err: err}
		}
		p.logger.Error("acquire connection", "request_id", opts.RequestID, "error", err)
		return nil, err
	}
	defer conn.Release()

	units := sqltext.Units(script)
	profile := dialect.Resolve(p.dbType())
	suffix := dialect.SuffixFor(profile, opts.PreviewLimit)

	p.logger.Debug("executing script",
		"request_id", opts.RequestID,
		"statements", len(units),
		"dialect", profile.Name)

	envelopes := make([]core.Envelope, 0, len(units))
	for _, unit := range units {
		envelopes = append(envelopes, p.run(ctx, conn, unit, suffix, opts))
	}
	return envelopes, nil
}

func (p *Pipeline) run(ctx context.Context, conn adapter.Conn, unit sqltext.Unit, suffix string, opts core.Options) core.Envelope {
	if err := guard.Check(unit.Text, opts.RestrictUpdate); err != nil {
		p.logger.Warn("statement rejected", "request_id", opts.RequestID, "index", unit.Index, "reason", err.Error())
		return p.failure(unit.Text, opts, err, err.Error())
	}

	text := unit.Text + suffix
	start := p.now()
	rs, err := conn.Query(ctx, text)
	if err != nil {
		stmtErr := &core.StatementError{Index: unit.Index, Query: text, Err: err}
		p.logger.Warn("statement failed", "request_id", opts.RequestID, "index", unit.Index, "error", err)
		return p.failure(unit.Text, opts, stmtErr, fmt.Sprintf("Execution failed with: %v", err))
	}

	rs = trim.Apply(rs, opts.TrimResult)
	p.logger.Debug("statement ok",
		"request_id", opts.RequestID,
		"index", unit.Index,
		"rows", rs.Len(),
		"duration", p.now().Sub(start))

	rows := []core.Row{}
	if rs != nil && rs.Rows != nil {
		rows = rs.Rows
	}
	return core.Envelope{
		ResultID:     p.newID(),
		RequestID:    opts.RequestID,
		ConnectionID: p.connector.ID(),
		Query:        unit.Text,
		Columns:      rs.ColumnNames(),
		Rows:         rows,
		Messages:     []core.Message{{Date: p.now(), Message: fmt.Sprintf("Query ok with %d results", rs.Len())}},
	}
}

func (p *Pipeline) failure(text string, opts core.Options, err error, message string) core.Envelope {
	return core.Envelope{
		ResultID:     p.newID(),
		RequestID:    opts.RequestID,
		ConnectionID: p.connector.ID(),
		Query:        text,
		Columns:      []string{},
		Rows:         []core.Row{},
		IsError:      true,
		Err:          err,
		Messages:     []core.Message{{Date: p.now(), Message: message}},
	}
}
