package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// ExecOptions holds options for the exec command.
type ExecOptions struct {
	Files     []string
	Watch     bool
	RequestID string
	Parallel  int
	NoHistory bool
}

// scriptRunner executes one script. *executor.Pipeline satisfies it.
type scriptRunner interface {
	Execute(ctx context.Context, script string, opts core.Options) ([]core.Envelope, error)
}

// script is one unit of input: the command-line text, stdin or a file.
type script struct {
	Name string
	Text string
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	opts := &ExecOptions{}

	cmd := &cobra.Command{
		Use:   "exec [SQL]",
		Short: "Execute a SQL script",
		Long: `Execute one or more semicolon-separated statements.

The script is taken from the arguments, from --file (repeatable; files run
concurrently) or from stdin. Every statement produces one result; a failing
statement does not stop the rest of the script.`,
		Example: `  sqlbatch exec "SELECT 1; SELECT 2"
  sqlbatch exec -f setup.sql -f report.sql --preview-limit 100
  cat script.sql | sqlbatch exec -o json
  sqlbatch exec -f report.sql --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Files, "file", "f", nil, "Script file to execute (repeatable, - for stdin)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run files when they change")
	cmd.Flags().StringVar(&opts.RequestID, "request-id", "", "Correlation id copied onto every result (default: random)")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 4, "Maximum number of files executed at once")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record results in the history database")
	cmd.Flags().Bool("restrict-update", true, "Reject UPDATE/DELETE without WHERE")
	cmd.Flags().Bool("trim", false, "Trim whitespace from text columns")
	cmd.Flags().Int("preview-limit", 0, "Cap rows per statement where the dialect supports it (0 = no cap)")

	return cmd
}

func runExec(cmd *cobra.Command, args []string, opts *ExecOptions) error {
	if opts.Watch && len(opts.Files) == 0 {
		return errors.New("--watch requires at least one --file")
	}

	scripts, err := collectScripts(args, opts.Files, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if !opts.NoHistory {
		if err := cc.OpenHistory(); err != nil {
			cc.Logger.Warn("history disabled", "error", err)
		}
	}

	requestID := opts.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	execOpts := cc.Cfg.ExecOptions(requestID)

	envs, err := runScripts(cmd.Context(), cc.Pipeline, scripts, execOpts, opts.Parallel)
	if err != nil {
		return err
	}
	cc.Record(cmd.Context(), envs)
	if err := cc.Renderer.Envelopes(envs); err != nil {
		return err
	}

	if opts.Watch {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return watchScripts(ctx, cc, opts.Files, execOpts)
	}

	if failed := countFailed(envs); failed > 0 {
		return fmt.Errorf("%w: %d of %d", errStatementsFailed, failed, len(envs))
	}
	return nil
}

// collectScripts gathers the input scripts. Arguments form one script, each
// file another; stdin is read when neither is given.
func collectScripts(args, files []string, stdin io.Reader) ([]script, error) {
	var scripts []script
	if len(args) > 0 {
		scripts = append(scripts, script{Name: "args", Text: strings.Join(args, " ")})
	}
	for _, f := range files {
		if f == "-" {
			text, err := readStdin(stdin)
			if err != nil {
				return nil, err
			}
			scripts = append(scripts, script{Name: "stdin", Text: text})
			continue
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read script: %w", err)
		}
		scripts = append(scripts, script{Name: f, Text: string(data)})
	}
	if len(scripts) > 0 {
		return scripts, nil
	}

	if isTerminalReader(stdin) {
		return nil, errors.New("no SQL given\nHint: Pass statements as arguments, use --file or pipe a script on stdin")
	}
	text, err := readStdin(stdin)
	if err != nil {
		return nil, err
	}
	return []script{{Name: "stdin", Text: text}}, nil
}

func readStdin(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func isTerminalReader(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// runScripts executes scripts concurrently, at most parallel at a time, and
// returns their envelopes in input order. Only connection failures are
// returned as errors.
func runScripts(ctx context.Context, runner scriptRunner, scripts []script, opts core.Options, parallel int) ([]core.Envelope, error) {
	results := make([][]core.Envelope, len(scripts))

	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, s := range scripts {
		g.Go(func() error {
			envs, err := runner.Execute(gctx, s.Text, opts)
			if err != nil {
				if len(scripts) == 1 {
					return err
				}
				return fmt.Errorf("%s: %w", s.Name, err)
			}
			results[i] = envs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []core.Envelope
	for _, envs := range results {
		all = append(all, envs...)
	}
	if all == nil {
		all = []core.Envelope{}
	}
	return all, nil
}

// watchScripts re-runs a file each time it changes until ctx is cancelled.
func watchScripts(ctx context.Context, cc *CommandContext, files []string, opts core.Options) error {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		if f == "-" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		paths = append(paths, abs)
	}

	cc.Renderer.Println(cc.Renderer.Styles().Muted.Render("Watching for changes, press Ctrl+C to stop"))
	return watchFiles(ctx, paths, watchDebounce, func(path string) {
		data, err := os.ReadFile(path)
		if err != nil {
			cc.Renderer.Errorln(fmt.Sprintf("Error: %v", err))
			return
		}
		cc.Logger.Info("change detected", "file", filepath.Base(path))

		runOpts := opts
		runOpts.RequestID = uuid.NewString()
		envs, err := cc.Pipeline.Execute(ctx, string(data), runOpts)
		if err != nil {
			cc.Renderer.Errorln(fmt.Sprintf("Error: %v", err))
			return
		}
		cc.Record(ctx, envs)
		if err := cc.Renderer.Envelopes(envs); err != nil {
			cc.Renderer.Errorln(fmt.Sprintf("Error: %v", err))
		}
	})
}

const watchDebounce = 100 * time.Millisecond
