package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlbatch/internal/testutil"
	"github.com/leapstack-labs/sqlbatch/pkg/adapter"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
	_ "github.com/leapstack-labs/sqlbatch/pkg/dialects/as400"
	_ "github.com/leapstack-labs/sqlbatch/pkg/dialects/generic"
	"github.com/leapstack-labs/sqlbatch/pkg/guard"
)

// mockConnector serves connections from a sqlmock-backed adapter.
type mockConnector struct {
	base *adapter.BaseSQLAdapter
}

func (m *mockConnector) Acquire(ctx context.Context) (adapter.Conn, error) {
	return m.base.Acquire(ctx)
}

func (m *mockConnector) ID() string { return "conn-1" }

// failingConnector never yields a connection.
type failingConnector struct {
	err error
}

func (f failingConnector) Acquire(context.Context) (adapter.Conn, error) { return nil, f.err }

func (f failingConnector) ID() string { return "conn-x" }

// countingConnector records releases.
type countingConnector struct {
	released int
}

type countingConn struct {
	c *countingConnector
}

func (c countingConn) Query(context.Context, string) (*core.ResultSet, error) {
	return &core.ResultSet{}, nil
}

func (c countingConn) Release() { c.c.released++ }

func (c *countingConnector) Acquire(context.Context) (adapter.Conn, error) {
	return countingConn{c: c}, nil
}

func (c *countingConnector) ID() string { return "counting" }

func newMockPipeline(t *testing.T, opts ...Option) (*Pipeline, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	base := adapter.NewBase(testutil.NewTestLogger(t))
	require.NoError(t, base.Attach(context.Background(), db, core.ConnectionConfig{Driver: "mock"}))
	t.Cleanup(func() { _ = base.Close() })

	seq := 0
	defaults := []Option{
		WithLogger(testutil.NewTestLogger(t)),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("r%d", seq)
		}),
	}
	return New(&mockConnector{base: &base}, append(defaults, opts...)...), mock
}

func TestExecute_UpdateWithoutWhereThenSelect(t *testing.T) {
	p, mock := newMockPipeline(t)
	mock.ExpectQuery("SELECT * FROM t").WillReturnRows(
		sqlmock.NewRows([]string{"x"}).AddRow(int64(1)).AddRow(int64(2)))

	envs, err := p.Execute(context.Background(), "UPDATE t SET x=1; SELECT * FROM t", core.Options{
		RequestID:      "req-1",
		RestrictUpdate: true,
	})
	require.NoError(t, err)
	require.Len(t, envs, 2)

	first := envs[0]
	assert.True(t, first.IsError)
	assert.Equal(t, guard.MissingWhereMessage, first.Message())
	assert.Equal(t, "UPDATE t SET x=1", first.Query)
	assert.Empty(t, first.Columns)
	assert.Empty(t, first.Rows)
	var rejected *guard.RejectedError
	assert.True(t, errors.As(first.Err, &rejected))

	second := envs[1]
	assert.False(t, second.IsError)
	assert.Equal(t, []string{"x"}, second.Columns)
	assert.Len(t, second.Rows, 2)
	assert.Equal(t, "Query ok with 2 results", second.Message())

	for _, e := range envs {
		assert.Equal(t, "req-1", e.RequestID)
		assert.Equal(t, "conn-1", e.ConnectionID)
	}
	assert.Equal(t, "r1", first.ResultID)
	assert.Equal(t, "r2", second.ResultID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_FailureDoesNotStopBatch(t *testing.T) {
	p, mock := newMockPipeline(t)
	mock.ExpectQuery("SELECT * FROM missing").WillReturnError(errors.New("no such table: missing"))
	mock.ExpectQuery("SELECT 1 AS one").WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(int64(1)))

	envs, err := p.Execute(context.Background(), "SELECT * FROM missing;\nSELECT 1 AS one;", core.Options{RestrictUpdate: true})
	require.NoError(t, err)
	require.Len(t, envs, 2)

	assert.True(t, envs[0].IsError)
	assert.Equal(t, "Execution failed with: no such table: missing", envs[0].Message())
	assert.Equal(t, []string{}, envs[0].Columns)
	assert.Equal(t, []core.Row{}, envs[0].Rows)
	var stmtErr *core.StatementError
	require.True(t, errors.As(envs[0].Err, &stmtErr))
	assert.Equal(t, 1, stmtErr.Index)

	assert.False(t, envs[1].IsError)
	assert.Equal(t, "Query ok with 1 results", envs[1].Message())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_RestrictUpdateDisabledRejectsAll(t *testing.T) {
	p, mock := newMockPipeline(t)

	envs, err := p.Execute(context.Background(), "SELECT 1; DELETE FROM t WHERE id = 1", core.Options{RestrictUpdate: false})
	require.NoError(t, err)
	require.Len(t, envs, 2)
	for _, e := range envs {
		assert.True(t, e.IsError)
		assert.Equal(t, guard.DisabledMessage, e.Message())
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_PreviewLimitSuffix(t *testing.T) {
	tests := []struct {
		name   string
		dbType string
		limit  int
		want   string
	}{
		{"as400 limit", "ibm iSeries (AS400)", 5, "SELECT * FROM t fetch first 5 rows only"},
		{"as400 no limit", "as400", 0, "SELECT * FROM t"},
		{"generic ignores limit", "sqlite", 5, "SELECT * FROM t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, mock := newMockPipeline(t, WithDBType(func() string { return tt.dbType }))
			mock.ExpectQuery(tt.want).WillReturnRows(sqlmock.NewRows([]string{"a"}))

			envs, err := p.Execute(context.Background(), "SELECT * FROM t", core.Options{RestrictUpdate: true, PreviewLimit: tt.limit})
			require.NoError(t, err)
			require.Len(t, envs, 1)
			assert.False(t, envs[0].IsError)
			assert.Equal(t, "SELECT * FROM t", envs[0].Query)
			assert.Equal(t, "Query ok with 0 results", envs[0].Message())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestExecute_TrimResult(t *testing.T) {
	rowsFor := func() *sqlmock.Rows {
		return sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("name").OfType("CHAR", ""),
			sqlmock.NewColumn("qty").OfType("INTEGER", int64(0)),
		).AddRow("ABC   ", int64(3))
	}

	p, mock := newMockPipeline(t)
	mock.ExpectQuery("SELECT name, qty FROM items").WillReturnRows(rowsFor())
	mock.ExpectQuery("SELECT name, qty FROM items").WillReturnRows(rowsFor())

	trimmed, err := p.Execute(context.Background(), "SELECT name, qty FROM items", core.Options{RestrictUpdate: true, TrimResult: true})
	require.NoError(t, err)
	raw, err := p.Execute(context.Background(), "SELECT name, qty FROM items", core.Options{RestrictUpdate: true})
	require.NoError(t, err)

	assert.Equal(t, "ABC", trimmed[0].Rows[0]["name"])
	assert.Equal(t, int64(3), trimmed[0].Rows[0]["qty"])
	assert.Equal(t, "ABC   ", raw[0].Rows[0]["name"])
}

func TestExecute_TrimResultUntypedColumns(t *testing.T) {
	p, mock := newMockPipeline(t)
	mock.ExpectQuery("SELECT name FROM customers").WillReturnRows(
		sqlmock.NewRows([]string{"name"}).AddRow("ACME      "))

	envs, err := p.Execute(context.Background(), "SELECT name FROM customers", core.Options{RestrictUpdate: true, TrimResult: true})
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, "ACME", envs[0].Rows[0]["name"])
}

func TestExecute_QueryRecordsStatementText(t *testing.T) {
	p, mock := newMockPipeline(t, WithDBType(func() string { return "as400" }))
	mock.ExpectQuery("SELECT * FROM t fetch first 5 rows only").WillReturnRows(sqlmock.NewRows([]string{"a"}))
	mock.ExpectQuery("SELECT * FROM missing fetch first 5 rows only").WillReturnError(errors.New("no such table"))

	envs, err := p.Execute(context.Background(), "SELECT * FROM t; DELETE FROM t; SELECT * FROM missing",
		core.Options{RestrictUpdate: true, PreviewLimit: 5})
	require.NoError(t, err)
	require.Len(t, envs, 3)
	assert.Equal(t, "SELECT * FROM t", envs[0].Query)
	assert.Equal(t, "DELETE FROM t", envs[1].Query)
	assert.True(t, envs[1].IsError)
	assert.Equal(t, "SELECT * FROM missing", envs[2].Query)
	assert.True(t, envs[2].IsError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_OneEnvelopePerUnit(t *testing.T) {
	p, mock := newMockPipeline(t)
	script := `SELECT ';' AS x; SELECT "a;b" AS y;;  ; SELECT 3`
	mock.ExpectQuery("SELECT ';' AS x").WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(";"))
	mock.ExpectQuery(`SELECT "a;b" AS y`).WillReturnRows(sqlmock.NewRows([]string{"y"}).AddRow("a;b"))
	mock.ExpectQuery("SELECT 3").WillReturnRows(sqlmock.NewRows([]string{"3"}).AddRow(int64(3)))

	envs, err := p.Execute(context.Background(), script, core.Options{RestrictUpdate: true})
	require.NoError(t, err)
	require.Len(t, envs, 3)
	assert.Equal(t, "SELECT ';' AS x", envs[0].Query)
	assert.Equal(t, `SELECT "a;b" AS y`, envs[1].Query)
	assert.Equal(t, "SELECT 3", envs[2].Query)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_EmptyScript(t *testing.T) {
	c := &countingConnector{}
	p := New(c)

	envs, err := p.Execute(context.Background(), "  ;\n ; ", core.Options{RestrictUpdate: true})
	require.NoError(t, err)
	assert.Empty(t, envs)
	assert.Equal(t, 1, c.released)
}

func TestExecute_ReleasesOnce(t *testing.T) {
	c := &countingConnector{}
	p := New(c)

	envs, err := p.Execute(context.Background(), "SELECT 1; SELECT 2", core.Options{RestrictUpdate: true})
	require.NoError(t, err)
	assert.Len(t, envs, 2)
	assert.Equal(t, 1, c.released)
}

func TestExecute_ConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"typed", &core.ConnectionError{Driver: "odbc", Err: errors.New("timeout")}},
		{"plain", errors.New("pool exhausted")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(failingConnector{err: tt.err})

			envs, err := p.Execute(context.Background(), "SELECT 1", core.Options{RestrictUpdate: true})

			assert.Nil(t, envs)
			var connErr *core.ConnectionError
			assert.True(t, errors.As(err, &connErr))
		})
	}
}

func TestExecute_MessageTimestamp(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := New(&countingConnector{}, WithClock(func() time.Time { return fixed }))

	envs, err := p.Execute(context.Background(), "SELECT 1", core.Options{RestrictUpdate: true})
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, fixed, envs[0].Messages[0].Date)
	assert.NotEmpty(t, envs[0].ResultID)
}
