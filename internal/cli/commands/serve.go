package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbatch/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the execution API over HTTP",
		Long: `Start an HTTP server exposing script execution and schema browsing.

Endpoints:
  GET  /api/health
  POST /api/execute
  GET  /api/dialects
  GET  /api/explorer/databases
  GET  /api/explorer/tables?schema=
  GET  /api/explorer/columns?schema=&table=
  GET  /api/explorer/search?q=

When server.token is set every endpoint except /api/health requires
"Authorization: Bearer <token>".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			var recorder server.Recorder
			if !noHistory {
				if err := cc.OpenHistory(); err != nil {
					cc.Logger.Warn("history disabled", "error", err)
				} else if cc.History != nil {
					recorder = cc.History
				}
			}

			srv, err := server.New(server.Config{
				Runner:   cc.Pipeline,
				Explorer: cc.Explorer,
				Recorder: recorder,
				Defaults: cc.Cfg.ExecOptions(""),
				Listen:   cc.Cfg.Server.Listen,
				Token:    cc.Cfg.Server.Token,
				Logger:   cc.Logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cc.Renderer.Println(cc.Renderer.Styles().Success.Render("Listening on http://" + cc.Cfg.Server.Listen))
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().String("listen", "", "Listen address host:port (default: server.listen)")
	cmd.Flags().String("token", "", "Bearer token required by the API (default: server.token)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record executions")
	cmd.Flags().Bool("restrict-update", true, "Default for requests that omit restrictUpdate")
	cmd.Flags().Bool("trim", false, "Default for requests that omit trimResult")
	cmd.Flags().Int("preview-limit", 0, "Default for requests that omit previewLimit")
	return cmd
}
