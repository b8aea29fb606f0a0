// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/profiledir/internal/export"
	"github.com/pdiddy/profiledir/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Generate office-template CSV files from fetched profiles",
	Long: `Export converts every fetched profile JSON into per-section CSV files
for the office import template: one papers file, one presentations file, and
one file for everything else, per researcher. A single researcher failing
never aborts the batch.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("data-dir", "data", "base data directory")
	exportCmd.Flags().String("output-dir", "", "output directory (default <data-dir>/export)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	dataDir := stringSetting(cmd, "data-dir", "export.data_dir")
	outDir := stringSetting(cmd, "output-dir", "export.output_dir")
	if outDir == "" {
		outDir = filepath.Join(dataDir, "export")
	}

	table, err := loadLabels()
	if err != nil {
		return err
	}

	cfg := types.ExportConfig{
		DataDir:   dataDir,
		OutputDir: outDir,
	}

	result, err := export.ExportBatch(cfg, table, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d researcher(s) failed export", result.Failed)
	}
	return nil
}
