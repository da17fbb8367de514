package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-stipple-mcp/internal/config"
)

var (
	version = "dev"     // semantic version (e.g., "v1.2.3")
	commit  = "unknown" // git commit SHA
	date    = "unknown" // build timestamp
)

// SetVersion sets the version information displayed by --version and
// reported to MCP clients. It is called by the main package with values
// injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the CLI and returns an error if any command fails.
//
// Running without a command serves MCP over stdio, which is how MCP clients
// launch the binary.
//
// Example:
//
//	func main() {
//	    cli.SetVersion("v1.0.0", "abc123", "2025-12-20")
//	    if err := cli.Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "image-stipple-mcp",
		Short: "Weighted Voronoi stippling as an MCP server and CLI",
		Long: `image-stipple-mcp turns images into stipple drawings: dots placed by
weighted Lloyd relaxation, sized by local darkness and colored from the source.

Without a command it serves the Model Context Protocol over stdin and stdout.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			level, err := logLevel(cfg.Server.LogLevel, verbose)
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), level)
			logger.Debug("configuration loaded", "path", configPath, "cache", cfg.Server.CachePath)

			ctx := withConfig(withLogger(cmd.Context(), logger), cfg)
			cmd.SetContext(ctx)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("image-stipple-mcp %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newCacheCmd())

	return root
}
