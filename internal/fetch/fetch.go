// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads researcher profiles from the upstream API and
// writes one JSON file per researcher for the index and export stages.
// The client applies its own backpressure: a bounded worker pool, a
// shared request pacer, per-request timeouts, and backoff on 429. A
// failed endpoint yields a null section and a failed researcher never
// aborts the batch.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/profiledir/internal/httputil"
	"github.com/pdiddy/profiledir/pkg/types"
)

const jsonDir = "json"

// Client fetches profile data for single researchers.
type Client struct {
	http    *http.Client
	cfg     types.FetchConfig
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient builds a Client with config defaults applied. The limiter
// is shared across workers so the whole batch respects one request
// interval.
func NewClient(cfg types.FetchConfig, log zerolog.Logger) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.researchmap.jp"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "profiledir/0.1"
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = 100 * time.Millisecond
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
		log:     log,
	}
}

// RawProfile is the on-disk JSON shape: roster identity fields plus the
// raw payload of every section endpoint that answered.
type RawProfile struct {
	types.Researcher
	Sections map[string]json.RawMessage `json:"profile_data"`
}

// fetchEndpoint requests one section for one researcher. A 404, a
// non-200 status, a transport error, or a timeout all yield nil: the
// record simply has no data for that section.
func (c *Client) fetchEndpoint(ctx context.Context, id, endpoint string) json.RawMessage {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	url := c.cfg.APIBase + "/" + id
	if endpoint != "" {
		url += "/" + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.Warn().Str("id", id).Str("endpoint", endpoint).Err(err).Msg("building request")
		return nil
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		c.log.Warn().Str("id", id).Str("endpoint", endpoint).Err(err).Msg("endpoint fetch failed")
		return nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// Normal: the researcher has no data for this section.
		return nil
	default:
		c.log.Warn().Str("id", id).Str("endpoint", endpoint).
			Int("status", resp.StatusCode).Msg("endpoint fetch failed")
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn().Str("id", id).Str("endpoint", endpoint).Err(err).Msg("reading response")
		return nil
	}
	if !json.Valid(body) {
		c.log.Warn().Str("id", id).Str("endpoint", endpoint).Msg("invalid JSON payload")
		return nil
	}
	return body
}

// profileKey stores the bare-id payload alongside the section
// endpoints. The key is not a section name, so the index builder and
// exporter pass over it.
const profileKey = "profile"

// FetchProfile downloads the base profile and every configured section
// for one researcher. Endpoints that fail contribute nothing; the
// profile is returned even when every request came back empty.
func (c *Client) FetchProfile(ctx context.Context, r types.Researcher) RawProfile {
	sections := make(map[string]json.RawMessage)
	if data := c.fetchEndpoint(ctx, r.ID, ""); data != nil {
		sections[profileKey] = data
	}
	for _, endpoint := range types.APISectionOrder {
		if data := c.fetchEndpoint(ctx, r.ID, endpoint); data != nil {
			sections[endpoint] = data
		}
	}
	return RawProfile{Researcher: r, Sections: sections}
}

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int

	// FailedIDs names the researchers whose profile could not be written.
	FailedIDs []string
}

// Total returns the number of roster entries processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any researchers failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// FetchBatch downloads profiles for the whole roster through a bounded
// worker pool, writing data/json/<id>.json per researcher. With
// cfg.Incremental, researchers whose file already exists are skipped.
// Individual failures are reported on w and counted; the batch always
// runs to completion.
func FetchBatch(ctx context.Context, client *Client, roster []types.Researcher, cfg types.FetchConfig, w io.Writer) (BatchResult, error) {
	outDir := filepath.Join(cfg.DataDir, jsonDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchResult{}, fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return BatchResult{}, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result BatchResult
	)

	for _, r := range roster {
		outPath := filepath.Join(outDir, r.ID+".json")

		if cfg.Incremental {
			if _, err := os.Stat(outPath); err == nil {
				mu.Lock()
				fmt.Fprintf(w, "skipped: %s (already exists)\n", r.ID)
				result.Skipped++
				mu.Unlock()
				continue
			}
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			profile := client.FetchProfile(ctx, r)
			err := writeProfile(profile, outPath)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Fprintf(w, "failed:  %s (%v)\n", r.ID, err)
				result.Failed++
				result.FailedIDs = append(result.FailedIDs, r.ID)
				return
			}
			fmt.Fprintf(w, "fetched: %s (%d sections)\n", r.ID, len(profile.Sections))
			result.Downloaded++
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			fmt.Fprintf(w, "failed:  %s (%v)\n", r.ID, submitErr)
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, r.ID)
			mu.Unlock()
		}
	}

	wg.Wait()

	fmt.Fprintf(w, "\nBatch summary: %d fetched, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result, nil
}

// writeProfile marshals to a temp file and renames, so a crashed fetch
// never leaves a truncated profile behind.
func writeProfile(p RawProfile, path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing profile: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
