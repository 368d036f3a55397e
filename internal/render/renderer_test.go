package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

func sampleEnvelopes() []core.Envelope {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return []core.Envelope{
		{
			ResultID: "r1",
			Query:    "UPDATE t SET x=1",
			Columns:  []string{},
			Rows:     []core.Row{},
			IsError:  true,
			Err:      errors.New("Updates Or Deletes not allowed without where clause"),
			Messages: []core.Message{{Date: at, Message: "Updates Or Deletes not allowed without where clause"}},
		},
		{
			ResultID: "r2",
			Query:    "SELECT id, name FROM t",
			Columns:  []string{"id", "name"},
			Rows:     []core.Row{{"id": int64(1), "name": "a,b"}, {"id": int64(2), "name": nil}},
			Messages: []core.Message{{Date: at, Message: "Query ok with 2 results"}},
		},
	}
}

func render(t *testing.T, mode Mode) (string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, mode)
	require.NoError(t, r.Envelopes(sampleEnvelopes()))
	return out.String(), errOut.String()
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"JSON", ModeJSON, false},
		{"md", ModeMarkdown, false},
		{"yaml", ModeYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, ModeTable, Resolve(ModeAuto, true))
	assert.Equal(t, ModeMarkdown, Resolve(ModeAuto, false))
	assert.Equal(t, ModeCSV, Resolve(ModeCSV, true))
}

func TestNewRenderer_AutoOnBuffer(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.Equal(t, ModeMarkdown, r.Mode())
}

func TestEnvelopes_JSON(t *testing.T) {
	out, _ := render(t, ModeJSON)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, true, decoded[0]["error"])
	assert.Equal(t, "Updates Or Deletes not allowed without where clause", decoded[0]["rawError"])
	assert.Equal(t, []any{"id", "name"}, decoded[1]["cols"])
	assert.NotContains(t, decoded[1], "rawError")
}

func TestEnvelopes_YAML(t *testing.T) {
	out, _ := render(t, ModeYAML)

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "r2", decoded[1]["resultId"])
	assert.Equal(t, "SELECT id, name FROM t", decoded[1]["query"])
}

func TestEnvelopes_CSV(t *testing.T) {
	out, errOut := render(t, ModeCSV)

	assert.Equal(t, "id,name\n1,\"a,b\"\n2,NULL\n", out)
	assert.Contains(t, errOut, "without where clause")
}

func TestEnvelopes_Markdown(t *testing.T) {
	out, _ := render(t, ModeMarkdown)

	assert.Contains(t, out, "### Statement 1")
	assert.Contains(t, out, "**Error:** Updates Or Deletes not allowed without where clause")
	assert.Contains(t, out, "| id | name |")
	assert.Contains(t, out, "| 2 | NULL |")
	assert.Contains(t, out, "_Query ok with 2 results_")
}

func TestEnvelopes_Table(t *testing.T) {
	out, _ := render(t, ModeTable)

	assert.Contains(t, out, "-- [1] UPDATE t SET x=1")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "a,b")
	assert.Contains(t, out, "Query ok with 2 results")
	assert.NotContains(t, out, "<nil>")
}

func TestValue(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &out, ModeMarkdown)

	require.NoError(t, r.Value([]string{"generic"}, []string{"name"}, [][]any{{"generic"}, {"as|400"}}))
	assert.Equal(t, "| name |\n| --- |\n| generic |\n| as\\|400 |\n", out.String())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", FormatValue(nil))
	assert.Equal(t, "abc", FormatValue([]byte("abc")))
	assert.Equal(t, "2024-01-02T03:04:05Z", FormatValue(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Equal(t, "42", FormatValue(42))
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "SELECT a FROM b", oneLine("SELECT a\n  FROM b"))
	assert.True(t, strings.HasSuffix(oneLine(strings.Repeat("x", 100)), "..."))
}
