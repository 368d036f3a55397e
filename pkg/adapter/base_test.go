package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlbatch/internal/testutil"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
	"github.com/leapstack-labs/sqlbatch/pkg/sqltype"
)

func newMockBase(t *testing.T) (*BaseSQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	base := NewBase(testutil.NewTestLogger(t))
	require.NoError(t, base.Attach(context.Background(), db, core.ConnectionConfig{Driver: "mock"}))
	return &base, mock
}

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		setupDB bool
	}{
		{name: "close with nil DB", setupDB: false},
		{name: "close with open DB", setupDB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}

			assert.NoError(t, base.Close())
			assert.False(t, base.IsConnected())
		})
	}
}

func TestBaseSQLAdapter_NotConnected(t *testing.T) {
	base := NewBase(nil)

	_, err := base.Acquire(context.Background())
	assert.ErrorIs(t, err, core.ErrNotConnected)
	assert.ErrorIs(t, base.Ping(context.Background()), core.ErrNotConnected)
}

func TestBaseSQLAdapter_Attach_AppliesPoolDefaults(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	base := NewBase(nil)

	require.NoError(t, base.Attach(context.Background(), db, core.ConnectionConfig{
		Pool: core.PoolOptions{MaxOpenConns: 3},
	}))

	assert.Equal(t, 3, db.Stats().MaxOpenConnections)
	assert.True(t, base.IsConnected())
}

func TestWithPoolDefaults(t *testing.T) {
	got := withPoolDefaults(core.PoolOptions{MaxIdleConns: 2, PingTimeout: time.Second})
	assert.Equal(t, 10, got.MaxOpenConns)
	assert.Equal(t, 2, got.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, got.ConnMaxLifetime)
	assert.Equal(t, time.Second, got.PingTimeout)
}

func TestConn_Query(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		wantCols  []string
		wantRows  []core.Row
		expectErr bool
	}{
		{
			name: "rows with byte values",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id, name FROM users").WillReturnRows(
					sqlmock.NewRows([]string{"id", "name"}).
						AddRow(int64(1), []byte("alice  ")).
						AddRow(int64(2), nil))
			},
			sql:      "SELECT id, name FROM users",
			wantCols: []string{"id", "name"},
			wantRows: []core.Row{
				{"id": int64(1), "name": "alice  "},
				{"id": int64(2), "name": nil},
			},
		},
		{
			name: "statement without rows",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("DELETE FROM users WHERE id = 1").WillReturnRows(sqlmock.NewRows(nil))
			},
			sql:      "DELETE FROM users WHERE id = 1",
			wantCols: []string{},
			wantRows: []core.Row{},
		},
		{
			name: "backend error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELEC 1").WillReturnError(assert.AnError)
			},
			sql:       "SELEC 1",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, mock := newMockBase(t)
			tt.setupMock(mock)

			conn, err := base.Acquire(context.Background())
			require.NoError(t, err)
			defer conn.Release()

			rs, err := conn.Query(context.Background(), tt.sql)
			if tt.expectErr {
				assert.ErrorIs(t, err, assert.AnError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCols, rs.ColumnNames())
			assert.Equal(t, tt.wantRows, rs.Rows)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestConn_QueryTypeCodes(t *testing.T) {
	base, mock := newMockBase(t)
	mock.ExpectQuery("SELECT code, qty FROM items").WillReturnRows(
		sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("code").OfType("VARCHAR", ""),
			sqlmock.NewColumn("qty").OfType("INT", int64(0)),
		).AddRow("A1", int64(5)))

	conn, err := base.Acquire(context.Background())
	require.NoError(t, err)
	defer conn.Release()

	rs, err := conn.Query(context.Background(), "SELECT code, qty FROM items")
	require.NoError(t, err)
	require.Len(t, rs.Columns, 2)
	assert.Equal(t, sqltype.Varchar, rs.Columns[0].TypeCode)
	assert.Equal(t, "VARCHAR", rs.Columns[0].DatabaseType)
	assert.Equal(t, sqltype.Integer, rs.Columns[1].TypeCode)
}

func TestConn_QueryInfersTextForUntypedColumns(t *testing.T) {
	base, mock := newMockBase(t)
	mock.ExpectQuery("SELECT name, qty, note, blank FROM items").WillReturnRows(
		sqlmock.NewRows([]string{"name", "qty", "note", "blank"}).
			AddRow("ACME      ", int64(1), []byte("x "), nil).
			AddRow(nil, int64(2), "y", nil))

	conn, err := base.Acquire(context.Background())
	require.NoError(t, err)
	defer conn.Release()

	rs, err := conn.Query(context.Background(), "SELECT name, qty, note, blank FROM items")
	require.NoError(t, err)
	require.Len(t, rs.Columns, 4)
	assert.Equal(t, sqltype.Varchar, rs.Columns[0].TypeCode)
	assert.Equal(t, sqltype.Null, rs.Columns[1].TypeCode)
	assert.Equal(t, sqltype.Varchar, rs.Columns[2].TypeCode)
	assert.Equal(t, sqltype.Null, rs.Columns[3].TypeCode, "all-nil columns stay untyped")
}

func TestConn_QueryDuplicateColumnNames(t *testing.T) {
	base, mock := newMockBase(t)
	mock.ExpectQuery("SELECT a.id, b.id, c.id, id_2 FROM a, b, c").WillReturnRows(
		sqlmock.NewRows([]string{"id", "id", "id", "id_2"}).AddRow(int64(1), int64(2), int64(3), int64(4)))

	conn, err := base.Acquire(context.Background())
	require.NoError(t, err)
	defer conn.Release()

	rs, err := conn.Query(context.Background(), "SELECT a.id, b.id, c.id, id_2 FROM a, b, c")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "id_3", "id_4", "id_2"}, rs.ColumnNames())
	assert.Equal(t, core.Row{"id": int64(1), "id_3": int64(2), "id_4": int64(3), "id_2": int64(4)}, rs.Rows[0])
}

func TestConn_ReleaseIdempotent(t *testing.T) {
	base, _ := newMockBase(t)

	conn, err := base.Acquire(context.Background())
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		conn.Release()
		conn.Release()
	})
}
