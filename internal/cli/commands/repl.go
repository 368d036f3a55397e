package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbatch/internal/explorer"
	"github.com/leapstack-labs/sqlbatch/internal/render"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

const (
	replPrompt     = "sqlbatch> "
	replContPrompt = "     ...> "
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive SQL shell",
		Long: `Start an interactive shell on the configured connection.

Statements end with a semicolon and may span several lines. Lines starting
with a dot are shell commands; type .help to list them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}
	cmd.Flags().Bool("restrict-update", true, "Reject UPDATE/DELETE without WHERE")
	cmd.Flags().Bool("trim", false, "Trim whitespace from text columns")
	cmd.Flags().Int("preview-limit", 0, "Cap rows per statement where the dialect supports it (0 = no cap)")
	return cmd
}

// replState is the mutable per-shell state that dot-commands change.
type replState struct {
	runner   scriptRunner
	explorer *explorer.Explorer
	renderer *render.Renderer
	errOut   io.Writer
	opts     core.Options
	record   func(ctx context.Context, envs []core.Envelope)
}

func runREPL(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cc.OpenHistory(); err != nil {
		cc.Logger.Warn("history disabled", "error", err)
	}

	var historyFile string
	if cc.Cfg.HistoryPath != "" {
		historyFile = filepath.Join(filepath.Dir(cc.Cfg.HistoryPath), "repl_history")
	}

	st := &replState{
		runner:   cc.Pipeline,
		explorer: cc.Explorer,
		renderer: cc.Renderer,
		errOut:   cmd.ErrOrStderr(),
		opts:     cc.Cfg.ExecOptions(""),
		record:   cc.Record,
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newTableCompleter(ctx, cc.Explorer),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "sqlbatch shell (%s, dialect %s)\n", cc.Session.Config().Driver, cc.Explorer.Profile().Name)
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := st.handleDotCommand(ctx, line); quit {
				break
			}
			continue
		}

		// Accumulate multi-line SQL until semicolon
		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString("\n")
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		text := buf.String()
		buf.Reset()
		st.execute(ctx, text)
		_, _ = fmt.Fprintln(out)
	}
	return nil
}

// execute runs text and renders the results. Errors are printed, never returned.
func (s *replState) execute(ctx context.Context, text string) {
	opts := s.opts
	opts.RequestID = uuid.NewString()
	envs, err := s.runner.Execute(ctx, text, opts)
	if err != nil {
		s.printErr(err)
		return
	}
	if s.record != nil {
		s.record(ctx, envs)
	}
	if err := s.renderer.Envelopes(envs); err != nil {
		s.printErr(err)
	}
}

func (s *replState) printErr(err error) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
}

// handleDotCommand runs a dot-command and reports whether the shell should exit.
func (s *replState) handleDotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.renderer.Writer())

	case ".databases":
		dbs, err := s.explorer.Databases(ctx)
		if err != nil {
			s.printErr(err)
			return false
		}
		s.printErr(renderDatabases(s.renderer, dbs))

	case ".tables", ".views":
		schema := ""
		if len(args) > 0 {
			schema = args[0]
		}
		list := s.explorer.Tables
		if command == ".views" {
			list = s.explorer.Views
		}
		tables, err := list(ctx, "", schema)
		if err != nil {
			s.printErr(err)
			return false
		}
		s.printErr(renderTables(s.renderer, tables))

	case ".schema":
		if len(args) < 1 {
			_, _ = fmt.Fprintln(s.errOut, "Usage: .schema <table>")
			return false
		}
		schema, table := splitQualified(args[0])
		cols, err := s.explorer.Columns(ctx, "", schema, table)
		if err != nil {
			s.printErr(err)
			return false
		}
		s.printErr(renderColumns(s.renderer, cols))

	case ".restrict", ".trim":
		on, err := parseOnOff(args)
		if err != nil {
			s.printErr(err)
			return false
		}
		if command == ".restrict" {
			s.opts.RestrictUpdate = on
		} else {
			s.opts.TrimResult = on
		}
		s.renderer.Println(fmt.Sprintf("%s %s", strings.TrimPrefix(command, "."), onOff(on)))

	case ".limit":
		if len(args) != 1 {
			s.renderer.Println(fmt.Sprintf("limit %d", s.opts.PreviewLimit))
			return false
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			_, _ = fmt.Fprintln(s.errOut, "Usage: .limit <rows> (0 = no cap)")
			return false
		}
		s.opts.PreviewLimit = n
		s.renderer.Println(fmt.Sprintf("limit %d", n))

	case ".dialect":
		s.renderer.Println(s.explorer.Profile().Name)

	case ".clear":
		_, _ = fmt.Fprint(s.renderer.Writer(), "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func parseOnOff(args []string) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("expected on or off")
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", args[0])
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// splitQualified splits "schema.table" into its parts.
func splitQualified(name string) (schema, table string) {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help              Show this help message
  .databases         List databases
  .tables [schema]   List tables
  .views [schema]    List views
  .schema <table>    Show the columns of a table
  .restrict on|off   Toggle rejection of UPDATE/DELETE without WHERE
  .trim on|off       Toggle whitespace trimming of text columns
  .limit [rows]      Show or set the row cap (0 = no cap)
  .dialect           Show the active query dialect
  .clear             Clear the screen
  .quit / .exit      Exit the shell

Tips:
  - Statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// newTableCompleter creates a readline completer for table names.
func newTableCompleter(ctx context.Context, exp *explorer.Explorer) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	// Ignore errors as this is for autocomplete, not critical
	if tables, err := exp.Tables(ctx, "", ""); err == nil {
		for _, t := range tables {
			items = append(items, readline.PcItem(t.Name))
		}
	}

	var tableItems []readline.PrefixCompleterInterface
	tableItems = append(tableItems, items...)
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".databases"),
		readline.PcItem(".tables"),
		readline.PcItem(".views"),
		readline.PcItem(".schema", tableItems...),
		readline.PcItem(".restrict", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem(".trim", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem(".limit"),
		readline.PcItem(".dialect"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}
