package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/chartpad/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve editing sessions over HTTP. Sessions are kept in the configured
store (store.backend) and survive restarts unless the memory backend is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			sc := c.Config.Server
			if addr != "" {
				sc.Addr = addr
			}
			srv := server.New(store, server.Config{
				Addr:         sc.Addr,
				ReadTimeout:  sc.ReadTimeout.Duration,
				WriteTimeout: sc.WriteTimeout.Duration,
				MaxBodyBytes: sc.MaxBodyBytes,
				Session:      c.sessionOptions(),
			}, logger)

			printInfo("Serving on %s (store: %s)", StyleHighlight.Render(sc.Addr), c.Config.Store.Backend)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}
