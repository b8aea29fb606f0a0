// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/profiledir/internal/fetch"
	"github.com/pdiddy/profiledir/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultInterval  = 100 * time.Millisecond
	defaultUserAgent = "profiledir/0.1"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download researcher profiles from the researchmap API",
	Long: `Fetch reads the roster CSV, downloads every researcher's profile and
achievement sections from the researchmap API, and writes one JSON file per
researcher under the data directory. A single researcher failing never aborts
the batch.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("data-dir", "data", "base data directory")
	fetchCmd.Flags().String("roster", "", "roster CSV file (default <data-dir>/roster.csv)")
	fetchCmd.Flags().String("only", "", "file listing researcher IDs to fetch, one per line")
	fetchCmd.Flags().String("api-base", "", "upstream API root")
	fetchCmd.Flags().Int("concurrency", 0, "parallel researcher downloads (default 4)")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	fetchCmd.Flags().Duration("interval", 0, "pacing between upstream requests (default 100ms)")
	fetchCmd.Flags().Int("max-retries", 0, "retry budget for rate-limited requests (default 5)")
	fetchCmd.Flags().Bool("incremental", false, "skip researchers whose JSON already exists")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	dataDir := stringSetting(cmd, "data-dir", "fetch.data_dir")
	rosterPath := stringSetting(cmd, "roster", "fetch.roster")
	if rosterPath == "" {
		rosterPath = filepath.Join(dataDir, "roster.csv")
	}

	apiBase := stringSetting(cmd, "api-base", "fetch.api_base")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval == 0 {
		interval = defaultInterval
	}
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	incremental, _ := cmd.Flags().GetBool("incremental")

	roster, err := fetch.ReadRoster(rosterPath, os.Stdout)
	if err != nil {
		return err
	}

	if onlyPath, _ := cmd.Flags().GetString("only"); onlyPath != "" {
		wanted, err := fetch.ReadIDFilter(onlyPath)
		if err != nil {
			return err
		}
		filtered := roster[:0]
		for _, r := range roster {
			if wanted[r.ID] {
				filtered = append(filtered, r)
			}
		}
		roster = filtered
	}

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		APIBase:         apiBase,
		DataDir:         dataDir,
		Concurrency:     concurrency,
		RequestInterval: interval,
		MaxRetries:      maxRetries,
		Incremental:     incremental,
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	client := fetch.NewClient(cfg, log)

	result, err := fetch.FetchBatch(cmd.Context(), client, roster, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d researcher(s) failed to fetch", result.Failed)
	}
	return nil
}
