package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-stipple-mcp/internal/store"
)

var errNoCache = errors.New("no result cache configured (set server.cache_path or IMAGE_STIPPLE_CACHE_PATH)")

// newCacheCmd creates the result cache management command.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the stipple result cache",
	}

	cmd.AddCommand(newCacheStatsCmd())
	cmd.AddCommand(newCachePruneCmd())

	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number of cached results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(st *store.Store) error {
				n, err := st.Count(cmd.Context())
				if err != nil {
					return err
				}
				return printf(cmd.OutOrStdout(), "%d cached results in %s\n", n, configFromContext(cmd.Context()).Server.CachePath)
			})
		},
	}
}

func newCachePruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached results older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative, got %s", olderThan)
			}
			return withStore(cmd.Context(), func(st *store.Store) error {
				n, err := st.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				loggerFromContext(cmd.Context()).Debug("pruned result cache", "removed", n, "older_than", olderThan)
				return printf(cmd.OutOrStdout(), "Removed %d cached results\n", n)
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "remove results stored longer ago than this")
	return cmd
}

// withStore opens the configured result cache, runs fn and closes it.
func withStore(ctx context.Context, fn func(*store.Store) error) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	if st == nil {
		return errNoCache
	}
	defer st.Close()
	return fn(st)
}

func printf(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
