// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/profiledir/internal/index"
	"github.com/pdiddy/profiledir/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the search index from fetched profiles",
	Long: `Index reads every fetched profile JSON under the data directory and
rebuilds the full-text search database from scratch. The new index is built
in a temporary file and swapped in atomically, so searches keep working
against the old index until the build completes.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("data-dir", "data", "base data directory")
	indexCmd.Flags().String("db", "", "index database file (default <data-dir>/researchers.db)")

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	dataDir := stringSetting(cmd, "data-dir", "index.data_dir")
	dbPath := stringSetting(cmd, "db", "index.db_path")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "researchers.db")
	}

	cfg := types.IndexConfig{
		DataDir: dataDir,
		DBPath:  dbPath,
	}

	summary, err := index.Build(cmd.Context(), cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d record(s) failed indexing", summary.Failed)
	}
	return nil
}
