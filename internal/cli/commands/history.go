package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbatch/internal/history"
)

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear recorded executions",
	}
	cmd.AddCommand(newHistoryListCommand(), newHistoryClearCommand())
	return cmd
}

func newHistoryListCommand() *cobra.Command {
	var (
		filter history.Filter
		failed bool
		since  time.Duration
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded statements, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutSession(cmd)
			store, err := openHistory(cc)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if failed {
				filter.Status = history.StatusError
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			entries, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			rows := make([][]any, len(entries))
			for i, e := range entries {
				rows[i] = []any{
					e.CreatedAt.Local().Format(time.DateTime),
					e.Status,
					e.RowCount,
					oneLine(e.Statement, 60),
					e.Message,
				}
			}
			if entries == nil {
				entries = []history.Entry{}
			}
			return cc.Renderer.Value(entries, []string{"time", "status", "rows", "statement", "message"}, rows)
		},
	}
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 20, "Maximum entries (0 = all)")
	cmd.Flags().StringVar(&filter.RequestID, "request-id", "", "Only entries of this request")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Only statements containing this text")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only failed statements")
	cmd.Flags().DurationVar(&since, "since", 0, "Only entries newer than this (e.g. 1h)")
	return cmd
}

func newHistoryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded executions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutSession(cmd)
			store, err := openHistory(cc)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			cc.Renderer.Println(cc.Renderer.Styles().Success.Render("History cleared"))
			return nil
		},
	}
}

func openHistory(cc *CommandContext) (*history.Store, error) {
	if cc.Cfg.HistoryPath == "" {
		return nil, errors.New("history is disabled\nHint: Set history_path in sqlbatch.yaml")
	}
	if err := cc.OpenHistory(); err != nil {
		return nil, err
	}
	return cc.History, nil
}

// oneLine collapses whitespace and shortens s to width runes.
func oneLine(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if width > 3 && len(r) > width {
		return string(r[:width-3]) + "..."
	}
	return s
}
