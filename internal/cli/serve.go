package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-stipple-mcp/internal/server"
	"github.com/ironsheep/image-stipple-mcp/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdin and stdout",
		Long: `Serve the Model Context Protocol over stdin and stdout.

Configure the binary as a stdio server in your MCP client. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := configFromContext(ctx)
	logger := loggerFromContext(ctx)

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	logger.Info("starting MCP server", "version", version, "commit", commit, "built", date)
	srv := server.New(server.Options{
		Config:  cfg,
		Store:   st,
		Logger:  logger,
		Version: version,
	})
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server stopped", "err", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

// openStore opens the configured result cache. It returns nil when no cache
// path is configured.
func openStore(ctx context.Context) (*store.Store, error) {
	cfg := configFromContext(ctx)
	if cfg.Server.CachePath == "" {
		return nil, nil
	}
	return store.Open(ctx, cfg.Server.CachePath, loggerFromContext(ctx))
}
