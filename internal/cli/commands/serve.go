package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/wttnguyen/draftolio/internal/keepalive"
	"github.com/wttnguyen/draftolio/internal/server"
	"github.com/wttnguyen/draftolio/internal/store"
)

// NewServeCmd creates the serve command
func NewServeCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local companion gateway",
		Long: `Starts the local gateway that fronts the Draftolio backend for a browser:
route guards on page navigation, session endpoints, and draft operations
over the authenticated interceptor chain. A background keepalive worker
refreshes the access token before it expires.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			cache, err := store.Open(e.cfg.Cache.Path, e.logger)
			if err != nil {
				e.logger.Warn().Err(err).Msg("Draft cache unavailable, continuing without it")
				cache = nil
			}

			worker, err := keepalive.New(e.cfg.Gateway.KeepaliveSchedule, e.session, e.logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Eager status probe so the first page load sees settled state.
			if _, err := e.session.CheckStatus(ctx); err != nil {
				e.logger.Warn().Err(err).Msg("Initial status check failed, starting logged-out")
			}

			go worker.Run(ctx)

			srv := server.New(e.cfg, e.session, e.client, e.notifier, cache, e.logger, version)
			return srv.Start()
		},
	}
}
