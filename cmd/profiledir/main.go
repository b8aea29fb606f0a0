// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the profiledir CLI. Build with
// -tags sqlite_fts5 (mage build does) so the sqlite driver includes
// the FTS5 module the index schema requires.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/profiledir/internal/labels"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the profiledir CLI.
var rootCmd = &cobra.Command{
	Use:   "profiledir",
	Short: "Researcher profile directory and search engine",
	Long: `profiledir aggregates researcher profiles from the researchmap API into
a searchable directory. Each pipeline stage is a subcommand: fetch downloads
profiles, index builds the full-text search database, search queries it from
the command line, serve exposes the HTTP API, and export generates the
office-template CSV files.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./profiledir.yaml or ~/.config/profiledir/config.yaml)")
	rootCmd.PersistentFlags().String("labels", "", "label table override file (YAML)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("profiledir")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "profiledir"))
		}
	}

	viper.SetEnvPrefix("PROFILEDIR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadLabels builds the label table from the --labels flag, a configured
// path, or the compiled-in defaults.
func loadLabels() (*labels.Table, error) {
	path, _ := rootCmd.PersistentFlags().GetString("labels")
	if path == "" {
		path = viper.GetString("labels.path")
	}
	if path == "" {
		return labels.Default(), nil
	}
	return labels.Load(path)
}

// stringSetting resolves a string option: an explicitly set flag wins,
// then the config file, then the flag's declared default.
func stringSetting(cmd *cobra.Command, flag, key string) string {
	if cmd.Flags().Changed(flag) || !viper.IsSet(key) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return viper.GetString(key)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
