package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jenny-s51/patternfly-mcp/cache"
	"github.com/jenny-s51/patternfly-mcp/docs"
	"github.com/jenny-s51/patternfly-mcp/env"
	"github.com/jenny-s51/patternfly-mcp/mcp"
)

var rootCmd = &cobra.Command{
	Use:   "patternfly-mcp",
	Short: "MCP server for PatternFly documentation",
	Long: `patternfly-mcp serves PatternFly reference documentation over the
Model Context Protocol on stdio. Documents are loaded from remote URLs or
local files and memoized in bounded, sliding-TTL caches.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := env.NewLogger(cmd)

		fetchTimeout, err := env.DurationFlagOrEnv(cmd, "fetch-timeout", "PATTERNFLY_MCP_FETCH_TIMEOUT", docs.DefaultFetchTimeout)
		if err != nil {
			return err
		}
		cooldown, err := env.DurationFlagOrEnv(cmd, "clear-cooldown", "PATTERNFLY_MCP_CLEAR_COOLDOWN", cache.DefaultClearCooldown)
		if err != nil {
			return err
		}

		sources := docs.DefaultSourceTable()
		if path := env.FlagOrEnv(cmd, "sources", "PATTERNFLY_MCP_SOURCES", ""); path != "" {
			if sources, err = docs.LoadSourceTable(path); err != nil {
				return err
			}
		}

		agg := docs.NewAggregator(docs.Config{
			Fetcher:          docs.NewFetcher(fetchTimeout),
			Reader:           docs.NewReader(env.FlagOrEnv(cmd, "doc-root", "PATTERNFLY_MCP_DOC_ROOT", "")),
			Sources:          sources,
			Logger:           log,
			URLCacheOptions:  []cache.Option{cache.WithCapacity(100), cache.WithTTL(5 * time.Minute)},
			FileCacheOptions: []cache.Option{cache.WithCapacity(500), cache.WithTTL(10 * time.Minute)},
		})
		guard := cache.NewClearGuard(agg.Store(), cooldown)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server := mcp.NewServer(mcp.ServerConfig{
			Aggregator: agg,
			Guard:      guard,
			Logger:     log,
		})
		return server.Run(ctx)
	},
}

func main() {
	rootCmd.Flags().String("log-level", "", "log level (trace, debug, info, warn, error, none)")
	rootCmd.Flags().String("log-format", "", "log format (console or json)")
	rootCmd.Flags().String("doc-root", "", "directory local documentation paths resolve under")
	rootCmd.Flags().String("sources", "", "path to a YAML source table")
	rootCmd.Flags().String("fetch-timeout", "", "per-request timeout for remote fetches (default 15s)")
	rootCmd.Flags().String("clear-cooldown", "", "minimum interval between cache clears (default 5s)")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
