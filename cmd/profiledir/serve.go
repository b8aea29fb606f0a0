// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/profiledir/internal/engine"
	"github.com/pdiddy/profiledir/internal/server"
	"github.com/pdiddy/profiledir/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the researcher search API over HTTP",
	Long: `Serve opens the built index read-only and exposes the search API as
JSON over HTTP. The server drains in-flight requests on SIGINT or SIGTERM
before exiting.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("data-dir", "data", "base data directory")
	serveCmd.Flags().String("db", "", "index database file (default <data-dir>/researchers.db)")
	serveCmd.Flags().String("addr", ":8000", "listen address")
	serveCmd.Flags().StringSlice("allow-origin", nil, "CORS allowed origin (repeatable)")
	serveCmd.Flags().Float64("rate-rps", 0, "per-client rate limit in requests per second (0 disables)")
	serveCmd.Flags().Int("rate-burst", 0, "per-client rate limit burst")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	dataDir := stringSetting(cmd, "data-dir", "engine.data_dir")
	dbPath := stringSetting(cmd, "db", "engine.db_path")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "researchers.db")
	}

	table, err := loadLabels()
	if err != nil {
		return err
	}

	store, err := engine.Open(types.EngineConfig{DBPath: dbPath}, table)
	if err != nil {
		return err
	}
	defer store.Close()

	addr := stringSetting(cmd, "addr", "server.addr")
	origins, _ := cmd.Flags().GetStringSlice("allow-origin")
	if len(origins) == 0 {
		origins = viper.GetStringSlice("server.allow_origins")
	}
	rps, _ := cmd.Flags().GetFloat64("rate-rps")
	if rps == 0 {
		rps = viper.GetFloat64("server.rate_limit_rps")
	}
	burst, _ := cmd.Flags().GetInt("rate-burst")
	if burst == 0 {
		burst = viper.GetInt("server.rate_limit_burst")
	}

	cfg := types.ServerConfig{
		Addr:           addr,
		AllowOrigins:   origins,
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return server.Run(ctx, cfg, store, table, log)
}
