// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "profiledir/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the profile download stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIBase is the upstream API root (default "https://api.researchmap.jp").
	APIBase string `json:"api_base" yaml:"api_base"`

	// DataDir is the base data directory (contains roster.csv and json/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Concurrency bounds the number of researchers fetched in parallel
	// (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// RequestInterval paces consecutive upstream requests across all
	// workers (default 100ms).
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval"`

	// MaxRetries is the retry budget for rate-limited requests.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Incremental skips researchers whose JSON file already exists.
	Incremental bool `json:"incremental" yaml:"incremental"`
}

// IndexConfig holds settings for the index build stage.
type IndexConfig struct {
	// DataDir is the base data directory (contains json/ input).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// DBPath is the published index database file
	// (default DataDir/researchers.db).
	DBPath string `json:"db_path" yaml:"db_path"`
}

// EngineConfig holds settings for the query engine.
type EngineConfig struct {
	// DBPath is the index database file to open read-only.
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxSnippets caps snippets per researcher per query (default 5).
	MaxSnippets int `json:"max_snippets" yaml:"max_snippets"`

	// SnippetContext is the window, in characters, kept on each side of
	// a snippet match (default 50).
	SnippetContext int `json:"snippet_context" yaml:"snippet_context"`
}

// ServerConfig holds settings for the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address (default ":8000").
	Addr string `json:"addr" yaml:"addr"`

	// AllowOrigins configures CORS. Empty allows none.
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`

	// RateLimitRPS and RateLimitBurst bound per-client request rates.
	// Zero RPS disables limiting.
	RateLimitRPS   float64 `json:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst int     `json:"rate_limit_burst" yaml:"rate_limit_burst"`
}

// ExportConfig holds settings for the CSV export stage.
type ExportConfig struct {
	// DataDir is the base data directory (contains json/ input).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// OutputDir is the directory for generated CSV files.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// LabelsConfig points at the optional label-table override file.
type LabelsConfig struct {
	// Path is a YAML file overriding the built-in section labels and
	// organization list. Empty uses the defaults.
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch  FetchConfig  `json:"fetch" yaml:"fetch"`
	Index  IndexConfig  `json:"index" yaml:"index"`
	Engine EngineConfig `json:"engine" yaml:"engine"`
	Server ServerConfig `json:"server" yaml:"server"`
	Export ExportConfig `json:"export" yaml:"export"`
	Labels LabelsConfig `json:"labels" yaml:"labels"`
}
