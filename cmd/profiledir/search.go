// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/profiledir/internal/engine"
	"github.com/pdiddy/profiledir/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Query the researcher index from the command line",
	Long: `Search runs a query against the built index and prints matching
researchers with their matched snippets. Filters narrow the result by
organization or by the first letter of the English name. With --names the
query matches identity fields only (names, position), skipping achievements.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("data-dir", "data", "base data directory")
	searchCmd.Flags().String("db", "", "index database file (default <data-dir>/researchers.db)")
	searchCmd.Flags().StringSlice("org", nil, "filter by organization (repeatable)")
	searchCmd.Flags().String("initial", "", "filter by first letter of the English name")
	searchCmd.Flags().Int("limit", 20, "maximum results")
	searchCmd.Flags().Int("offset", 0, "results to skip")
	searchCmd.Flags().Bool("names", false, "match identity fields only")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")

	if namesOnly, _ := cmd.Flags().GetBool("names"); namesOnly {
		if query == "" {
			return fmt.Errorf("--names requires a query")
		}
		hits, err := store.SearchIdentity(cmd.Context(), query, limit)
		if err != nil {
			return err
		}
		for _, r := range hits {
			printResearcher(r)
		}
		fmt.Printf("\n%d researcher(s)\n", len(hits))
		return nil
	}

	orgs, _ := cmd.Flags().GetStringSlice("org")
	initial, _ := cmd.Flags().GetString("initial")
	offset, _ := cmd.Flags().GetInt("offset")

	page, err := store.Search(cmd.Context(), engine.Params{
		Query:   query,
		Orgs:    orgs,
		Initial: initial,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return err
	}

	for _, hit := range page.Researchers {
		printResearcher(hit.Researcher)
		for _, sn := range hit.Snippets {
			fmt.Printf("    [%s] %s\n", sn.Label, sn.Text)
		}
	}
	fmt.Printf("\n%d of %d researcher(s)\n", len(page.Researchers), page.Total)
	return nil
}

func printResearcher(r types.Researcher) {
	line := fmt.Sprintf("%s (%s)", r.NameJA, r.NameEN)
	if orgs := r.Orgs(); len(orgs) > 0 {
		line += "  " + strings.Join(orgs, ", ")
	}
	if r.Position != "" {
		line += "  " + r.Position
	}
	fmt.Fprintln(os.Stdout, line)
}
