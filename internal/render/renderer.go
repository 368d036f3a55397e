package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// Renderer writes envelopes in one mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer. ModeAuto is resolved against out, and
// colour styles are used only for terminal tables.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	tty := IsTerminal(out)
	styles := PlainStyles()
	if tty {
		styles = DefaultStyles()
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   Resolve(mode, tty),
		styles: styles,
	}
}

// Mode returns the concrete output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// Writer returns the output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Styles returns the active styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Println writes a line to the output writer.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Errorln writes a styled error line to the error writer.
func (r *Renderer) Errorln(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render(msg))
}

// Envelopes writes all envelopes.
func (r *Renderer) Envelopes(envs []core.Envelope) error {
	switch r.mode {
	case ModeJSON:
		return writeJSON(r.out, envs)
	case ModeYAML:
		return writeYAML(r.out, envs)
	case ModeCSV:
		return r.csv(envs)
	case ModeMarkdown:
		return r.markdown(envs)
	default:
		return r.table(envs)
	}
}

// Value writes any value in the structured modes (json, yaml) and falls back
// to a key/value table otherwise.
func (r *Renderer) Value(v any, header []string, rows [][]any) error {
	switch r.mode {
	case ModeJSON:
		return writeJSON(r.out, v)
	case ModeYAML:
		return writeYAML(r.out, v)
	case ModeCSV:
		w := csv.NewWriter(r.out)
		_ = w.Write(header)
		for _, row := range rows {
			_ = w.Write(stringify(row))
		}
		w.Flush()
		return w.Error()
	case ModeMarkdown:
		writeMarkdownTable(r.out, header, rows)
		return nil
	default:
		t := newTable(r.out)
		t.AppendHeader(toRow(header))
		for _, row := range rows {
			t.AppendRow(cells(row))
		}
		t.Render()
		return nil
	}
}

func (r *Renderer) table(envs []core.Envelope) error {
	for i, e := range envs {
		if i > 0 {
			_, _ = fmt.Fprintln(r.out)
		}
		_, _ = fmt.Fprintln(r.out, r.styles.Muted.Render(fmt.Sprintf("-- [%d] %s", i+1, oneLine(e.Query))))
		if e.IsError {
			_, _ = fmt.Fprintln(r.out, r.styles.Error.Render(e.Message()))
			continue
		}
		if len(e.Columns) > 0 {
			t := newTable(r.out)
			t.AppendHeader(toRow(e.Columns))
			for _, row := range e.Rows {
				t.AppendRow(cells(values(e.Columns, row)))
			}
			t.Render()
		}
		_, _ = fmt.Fprintln(r.out, r.styles.Success.Render(e.Message()))
	}
	return nil
}

func (r *Renderer) markdown(envs []core.Envelope) error {
	for i, e := range envs {
		if i > 0 {
			_, _ = fmt.Fprintln(r.out)
		}
		_, _ = fmt.Fprintf(r.out, "### Statement %d\n\n```sql\n%s\n```\n\n", i+1, e.Query)
		if e.IsError {
			_, _ = fmt.Fprintf(r.out, "**Error:** %s\n", e.Message())
			continue
		}
		if len(e.Columns) > 0 {
			rows := make([][]any, len(e.Rows))
			for j, row := range e.Rows {
				rows[j] = values(e.Columns, row)
			}
			writeMarkdownTable(r.out, e.Columns, rows)
			_, _ = fmt.Fprintln(r.out)
		}
		_, _ = fmt.Fprintf(r.out, "_%s_\n", e.Message())
	}
	return nil
}

// csv writes one CSV block per successful envelope, separated by blank
// lines. Failed statements are reported on the error writer.
func (r *Renderer) csv(envs []core.Envelope) error {
	first := true
	for _, e := range envs {
		if e.IsError {
			_, _ = fmt.Fprintln(r.errOut, e.Message())
			continue
		}
		if len(e.Columns) == 0 {
			continue
		}
		if !first {
			_, _ = fmt.Fprintln(r.out)
		}
		first = false

		w := csv.NewWriter(r.out)
		if err := w.Write(e.Columns); err != nil {
			return err
		}
		for _, row := range e.Rows {
			if err := w.Write(stringify(values(e.Columns, row))); err != nil {
				return err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}
	return nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeMarkdownTable(w io.Writer, header []string, rows [][]any) {
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(header, " | "))
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
	for _, row := range rows {
		cells := stringify(row)
		for i, c := range cells {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
}

func values(cols []string, row core.Row) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = row[c]
	}
	return out
}

func cells(vals []any) table.Row {
	out := make(table.Row, len(vals))
	for i, v := range vals {
		out[i] = FormatValue(v)
	}
	return out
}

func toRow(cols []string) table.Row {
	out := make(table.Row, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}

func stringify(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = FormatValue(v)
	}
	return out
}

// FormatValue renders a cell value. Nil becomes NULL.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return x.Format(time.RFC3339)
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}
