package commands

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlbatch/internal/history"
	"github.com/leapstack-labs/sqlbatch/internal/render"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

func seedHistory(t *testing.T, path string) {
	t.Helper()
	store := history.NewStore(nil)
	require.NoError(t, store.Open(path))
	defer func() { _ = store.Close() }()

	now := time.Now()
	require.NoError(t, store.Record(context.Background(), []core.Envelope{
		{ResultID: "1", RequestID: "r", Query: "SELECT 1", Columns: []string{"1"}, Rows: []core.Row{{"1": 1}},
			Messages: []core.Message{{Date: now, Message: "Query ok with 1 results"}}},
		{ResultID: "2", RequestID: "r", Query: "DELETE FROM t", IsError: true,
			Messages: []core.Message{{Date: now, Message: "Updates Or Deletes not allowed without where clause"}}},
	}))
}

func TestHistoryList(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env.cfg.HistoryPath)

	cmd := NewHistoryCommand()
	cmd.SetArgs([]string{"list", "--failed"})
	require.NoError(t, cmd.ExecuteContext(env.context(t, render.ModeJSON)))

	var entries []history.Entry
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "DELETE FROM t", entries[0].Statement)
	assert.Equal(t, history.StatusError, entries[0].Status)
}

func TestHistoryClear(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env.cfg.HistoryPath)

	cmd := NewHistoryCommand()
	cmd.SetArgs([]string{"clear"})
	require.NoError(t, cmd.ExecuteContext(env.context(t, render.ModeTable)))
	assert.Contains(t, env.out.String(), "History cleared")

	store := history.NewStore(nil)
	require.NoError(t, store.Open(env.cfg.HistoryPath))
	defer func() { _ = store.Close() }()
	entries, err := store.List(context.Background(), history.Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
