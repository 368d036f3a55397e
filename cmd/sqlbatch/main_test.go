// Package main provides tests for the sqlbatch CLI.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlbatch/internal/cli"
	"github.com/leapstack-labs/sqlbatch/internal/cli/testutil"
)

// run executes the root command in dir and returns stdout and stderr.
func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(dir)

	cmd := cli.NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlbatch")
}

func TestHelpCommand(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "--help")
	require.NoError(t, err)

	for _, expected := range []string{"exec", "repl", "explore", "dialects", "history", "serve", "ping", "completion"} {
		assert.Contains(t, out, expected)
	}
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlbatch")
}

func TestDialectsCommand(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "dialects", "-o", "json")
	require.NoError(t, err)

	var dialects []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &dialects))
	var names []string
	for _, d := range dialects {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"as400", "duckdb", "generic", "postgres", "sqlserver"}, names)
}

func TestExec_WithConfigFile(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, _, err := run(t, dir, "exec", "CREATE TABLE t (v TEXT); INSERT INTO t VALUES ('  x  '); SELECT v FROM t;", "--trim")
	require.NoError(t, err)

	var envs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &envs), out)
	require.Len(t, envs, 3)
	rows := envs[2]["results"].([]any)
	assert.Equal(t, "x", rows[0].(map[string]any)["v"])

	_, err = os.Stat(filepath.Join(dir, "data.db"))
	assert.NoError(t, err, "database file is created next to the config")
	_, err = os.Stat(filepath.Join(dir, ".sqlbatch", "history.db"))
	assert.NoError(t, err, "history is recorded by default")

	out, _, err = run(t, dir, "history", "list", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT v FROM t")
}

func TestExec_FlagsOnly(t *testing.T) {
	dir := t.TempDir()
	out, _, err := run(t, dir, "--driver", "sqlite", "--db-path", ":memory:", "--history", "",
		"exec", "SELECT 1 AS one", "-o", "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "one\n1"), out)
	testutil.AssertNoANSI(t, out)
}

func TestExec_NoConnection(t *testing.T) {
	_, _, err := run(t, t.TempDir(), "exec", "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no connection configured")
}

func TestExec_UnknownDriver(t *testing.T) {
	_, _, err := run(t, t.TempDir(), "--driver", "oracle", "exec", "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown connection driver")
}

func TestPing(t *testing.T) {
	out, _, err := run(t, t.TempDir(), "--driver", "sqlite", "--db-path", ":memory:", "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "Connection ok")
	assert.Contains(t, out, "generic")
}

func TestExplore_Tables(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "app.db")
	_, _, err := run(t, dir, "--driver", "sqlite", "--db-path", db, "exec", "CREATE TABLE orders (id INTEGER)")
	require.NoError(t, err)

	out, _, err := run(t, dir, "--driver", "sqlite", "--db-path", db, "explore", "tables", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "orders"`)

	out, _, err = run(t, dir, "--driver", "sqlite", "--db-path", db, "explore", "count", "orders", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total": 0`)
}
