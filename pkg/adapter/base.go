package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/sqlbatch/pkg/core"
	"github.com/leapstack-labs/sqlbatch/pkg/sqltype"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Ping and Acquire implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.ConnectionConfig
	Logger *slog.Logger
}

// NewBase returns a BaseSQLAdapter with a usable logger.
// If logger is nil, a discard logger is used.
func NewBase(logger *slog.Logger) BaseSQLAdapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return BaseSQLAdapter{Logger: logger}
}

// Open opens driverName with dsn, applies pool settings and pings the backend.
// On success the handle and cfg are stored on the adapter.
func (b *BaseSQLAdapter) Open(ctx context.Context, driverName, dsn string, cfg core.ConnectionConfig) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", driverName, err)
	}
	if err := b.Attach(ctx, db, cfg); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping %s: %w", driverName, err)
	}
	return nil
}

// Attach adopts an already opened handle, applies pool settings and pings it.
func (b *BaseSQLAdapter) Attach(ctx context.Context, db *sql.DB, cfg core.ConnectionConfig) error {
	pool := withPoolDefaults(cfg.Pool)
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pool.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return err
	}

	b.DB = db
	b.Cfg = cfg
	return nil
}

func withPoolDefaults(p core.PoolOptions) core.PoolOptions {
	def := core.DefaultPoolOptions()
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = def.MaxOpenConns
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = def.MaxIdleConns
	}
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = def.ConnMaxLifetime
	}
	if p.PingTimeout <= 0 {
		p.PingTimeout = def.PingTimeout
	}
	return p
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		err := b.DB.Close()
		b.DB = nil
		return err
	}
	return nil
}

// Ping verifies the connection is alive.
func (b *BaseSQLAdapter) Ping(ctx context.Context) error {
	if b.DB == nil {
		return core.ErrNotConnected
	}
	return b.DB.PingContext(ctx)
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Acquire pins a pooled connection.
func (b *BaseSQLAdapter) Acquire(ctx context.Context) (Conn, error) {
	if b.DB == nil {
		return nil, core.ErrNotConnected
	}
	c, err := b.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &sqlConn{conn: c, logger: b.Logger}, nil
}

// sqlConn is a Conn over a pinned *sql.Conn.
type sqlConn struct {
	conn    *sql.Conn
	logger  *slog.Logger
	release sync.Once
}

func (c *sqlConn) Query(ctx context.Context, text string) (*core.ResultSet, error) {
	//nolint:rowserrcheck // checked by ScanResultSet
	rows, err := c.conn.QueryContext(ctx, text)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return ScanResultSet(rows)
}

func (c *sqlConn) Release() {
	c.release.Do(func() {
		if err := c.conn.Close(); err != nil && c.logger != nil {
			c.logger.Warn("failed to release connection", slog.String("error", err.Error()))
		}
	})
}

// ScanResultSet reads all rows into a ResultSet.
// Byte slices are converted to strings. Rows without columns produce an
// empty, non-nil result set. Repeated column names get a numeric suffix
// ("id", "id_2") so that every value keeps its own row key. Columns whose
// driver reports no type name are typed VARCHAR when every non-nil value
// scanned is text.
func ScanResultSet(rows *sql.Rows) (*core.ResultSet, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	rs := &core.ResultSet{
		Columns: make([]core.ColumnDescriptor, len(types)),
		Rows:    []core.Row{},
	}
	names := uniqueNames(types)
	for i, ct := range types {
		dbType := ct.DatabaseTypeName()
		rs.Columns[i] = core.ColumnDescriptor{
			Name:         names[i],
			DatabaseType: dbType,
			TypeCode:     sqltype.CodeForDatabaseType(dbType),
		}
	}

	values := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range values {
		ptrs[i] = &values[i]
	}

	// textual tracks untyped columns: nil until a value is seen, then
	// whether every value so far was text.
	textual := make([]*bool, len(types))

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(core.Row, len(types))
		for i, col := range rs.Columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col.Name] = v
			if col.DatabaseType == "" && v != nil {
				_, isText := v.(string)
				if textual[i] == nil {
					textual[i] = &isText
				} else if !isText {
					*textual[i] = false
				}
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	for i, t := range textual {
		if t != nil && *t {
			rs.Columns[i].TypeCode = sqltype.Varchar
		}
	}
	return rs, nil
}

func uniqueNames(types []*sql.ColumnType) []string {
	names := make([]string, len(types))
	seen := make(map[string]bool, len(types))
	for i, ct := range types {
		seen[ct.Name()] = true
		names[i] = ct.Name()
	}
	used := make(map[string]bool, len(types))
	for i, name := range names {
		if !used[name] {
			used[name] = true
			continue
		}
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s_%d", name, n)
			if !seen[candidate] && !used[candidate] {
				names[i] = candidate
				used[candidate] = true
				break
			}
		}
	}
	return names
}
