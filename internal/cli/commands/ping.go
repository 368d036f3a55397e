package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbatch/internal/session"
	"github.com/leapstack-labs/sqlbatch/pkg/dialect"
)

// NewPingCommand creates the ping command.
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test the configured connection",
		Long:  `Open the configured connection, ping it and close it again.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutSession(cmd)
			if err := cc.Cfg.RequireConnection(); err != nil {
				return err
			}
			conn := cc.Cfg.ToConnectionConfig()

			start := time.Now()
			if err := session.TestConnection(cmd.Context(), conn, cc.Logger); err != nil {
				return err
			}
			elapsed := time.Since(start).Round(time.Millisecond)

			msg := fmt.Sprintf("Connection ok (%s, dialect %s) in %s",
				conn.Driver, dialect.Resolve(conn.DBType).Name, elapsed)
			cc.Renderer.Println(cc.Renderer.Styles().Success.Render(msg))
			return nil
		},
	}
}
