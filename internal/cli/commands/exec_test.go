package commands

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlbatch/internal/history"
	"github.com/leapstack-labs/sqlbatch/internal/render"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

type fakeRunner struct {
	calls   atomic.Int32
	err     error
	scripts chan string
}

func (f *fakeRunner) Execute(_ context.Context, script string, opts core.Options) ([]core.Envelope, error) {
	f.calls.Add(1)
	if f.scripts != nil {
		f.scripts <- script
	}
	if f.err != nil {
		return nil, f.err
	}
	return []core.Envelope{{RequestID: opts.RequestID, Query: strings.TrimSpace(script)}}, nil
}

func TestCollectScripts(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.sql")
	require.NoError(t, os.WriteFile(a, []byte("SELECT 1;"), 0o600))

	t.Run("args are one script", func(t *testing.T) {
		scripts, err := collectScripts([]string{"SELECT 1;", "SELECT 2"}, nil, strings.NewReader(""))
		require.NoError(t, err)
		require.Len(t, scripts, 1)
		assert.Equal(t, "SELECT 1; SELECT 2", scripts[0].Text)
	})

	t.Run("files and stdin dash", func(t *testing.T) {
		scripts, err := collectScripts(nil, []string{a, "-"}, strings.NewReader("SELECT 3"))
		require.NoError(t, err)
		require.Len(t, scripts, 2)
		assert.Equal(t, a, scripts[0].Name)
		assert.Equal(t, "SELECT 1;", scripts[0].Text)
		assert.Equal(t, "stdin", scripts[1].Name)
		assert.Equal(t, "SELECT 3", scripts[1].Text)
	})

	t.Run("stdin when nothing else", func(t *testing.T) {
		scripts, err := collectScripts(nil, nil, strings.NewReader("SELECT 4"))
		require.NoError(t, err)
		require.Len(t, scripts, 1)
		assert.Equal(t, "SELECT 4", scripts[0].Text)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := collectScripts(nil, []string{filepath.Join(dir, "nope.sql")}, strings.NewReader(""))
		assert.Error(t, err)
	})
}

func TestRunScripts_KeepsInputOrder(t *testing.T) {
	runner := &fakeRunner{}
	scripts := []script{
		{Name: "a", Text: "SELECT 'a'"},
		{Name: "b", Text: "SELECT 'b'"},
		{Name: "c", Text: "SELECT 'c'"},
	}

	envs, err := runScripts(context.Background(), runner, scripts, core.Options{RequestID: "r"}, 2)
	require.NoError(t, err)
	require.Len(t, envs, 3)
	for i, s := range scripts {
		assert.Equal(t, s.Text, envs[i].Query)
		assert.Equal(t, "r", envs[i].RequestID)
	}
	assert.Equal(t, int32(3), runner.calls.Load())
}

func TestRunScripts_ConnectionError(t *testing.T) {
	connErr := &core.ConnectionError{Driver: "sqlite", Err: core.ErrNotConnected}
	runner := &fakeRunner{err: connErr}

	_, err := runScripts(context.Background(), runner, []script{{Name: "a.sql", Text: "SELECT 1"}, {Name: "b.sql", Text: "SELECT 2"}}, core.Options{}, 0)
	require.Error(t, err)
	var target *core.ConnectionError
	assert.True(t, errors.As(err, &target))
}

func TestRunScripts_Empty(t *testing.T) {
	envs, err := runScripts(context.Background(), &fakeRunner{}, nil, core.Options{}, 1)
	require.NoError(t, err)
	assert.NotNil(t, envs)
	assert.Empty(t, envs)
}

func decodeEnvelopes(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestExec_SQLite(t *testing.T) {
	env := newTestEnv(t)
	cmd := NewExecCommand()
	cmd.SetArgs([]string{
		"CREATE TABLE users (id INTEGER, name TEXT);" +
			"INSERT INTO users VALUES (1, 'ann'), (2, 'bob');" +
			"SELECT id, name FROM users ORDER BY id;",
		"--request-id", "req-1",
	})

	require.NoError(t, cmd.ExecuteContext(env.context(t, render.ModeJSON)))

	envs := decodeEnvelopes(t, env.out.Bytes())
	require.Len(t, envs, 3)
	for _, e := range envs {
		assert.Equal(t, "req-1", e["requestId"])
		assert.Equal(t, false, e["error"])
	}
	assert.Equal(t, []any{"id", "name"}, envs[2]["cols"])
	rows := envs[2]["results"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "ann", rows[0].(map[string]any)["name"])

	// Every statement is recorded.
	store := history.NewStore(nil)
	require.NoError(t, store.Open(env.cfg.HistoryPath))
	defer func() { _ = store.Close() }()
	entries, err := store.List(context.Background(), history.Filter{RequestID: "req-1"})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestExec_FailedStatementsStillRender(t *testing.T) {
	env := newTestEnv(t)
	cmd := NewExecCommand()
	cmd.SetArgs([]string{"DELETE FROM users; SELECT 1 AS one;", "--no-history"})

	err := cmd.ExecuteContext(env.context(t, render.ModeJSON))
	require.ErrorIs(t, err, errStatementsFailed)

	envs := decodeEnvelopes(t, env.out.Bytes())
	require.Len(t, envs, 2)
	assert.Equal(t, true, envs[0]["error"])
	assert.Equal(t, false, envs[1]["error"])
}

func TestExec_Files(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.sql")
	b := filepath.Join(dir, "b.sql")
	require.NoError(t, os.WriteFile(a, []byte("SELECT 1 AS a;"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("SELECT 2 AS b; SELECT 3 AS c;"), 0o600))

	cmd := NewExecCommand()
	cmd.SetArgs([]string{"-f", a, "-f", b, "--no-history"})
	require.NoError(t, cmd.ExecuteContext(env.context(t, render.ModeJSON)))

	envs := decodeEnvelopes(t, env.out.Bytes())
	require.Len(t, envs, 3)
	assert.Equal(t, []any{"a"}, envs[0]["cols"])
	assert.Equal(t, []any{"b"}, envs[1]["cols"])
	assert.Equal(t, []any{"c"}, envs[2]["cols"])
}

func TestExec_Stdin(t *testing.T) {
	env := newTestEnv(t)
	cmd := NewExecCommand()
	cmd.SetIn(strings.NewReader("SELECT 42 AS answer"))
	cmd.SetArgs([]string{"--no-history"})

	require.NoError(t, cmd.ExecuteContext(env.context(t, render.ModeJSON)))
	envs := decodeEnvelopes(t, env.out.Bytes())
	require.Len(t, envs, 1)
	assert.Equal(t, []any{"answer"}, envs[0]["cols"])
}

func TestExec_WatchRequiresFile(t *testing.T) {
	env := newTestEnv(t)
	cmd := NewExecCommand()
	cmd.SetArgs([]string{"SELECT 1", "--watch"})

	err := cmd.ExecuteContext(env.context(t, render.ModeJSON))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch")
}
