// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index rebuilds the search database from fetched profile JSON.
// A rebuild is total: it constructs a fresh database in a temporary
// file and publishes it over the old one with a rename, so concurrent
// readers never observe a half-built index. A file lock serializes
// rebuilds; a second concurrent rebuild fails fast.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"
	// The trigram schema needs the driver built with -tags sqlite_fts5.
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/profiledir/internal/normalize"
	"github.com/pdiddy/profiledir/pkg/types"
)

const jsonDir = "json"

// BuildSummary holds counts from one index rebuild.
type BuildSummary struct {
	Researchers  int
	Achievements int
	Failed       int

	// FailedIDs names the records that could not be indexed.
	FailedIDs []string
}

// Total returns the number of input records processed.
func (s BuildSummary) Total() int {
	return s.Researchers + s.Failed
}

// HasFailures reports whether any records failed.
func (s BuildSummary) HasFailures() bool {
	return s.Failed > 0
}

// Build rebuilds the index database at cfg.DBPath from the JSON files
// under cfg.DataDir/json/. Per-record read or parse failures are
// isolated: the record is counted, reported on w, and the build
// continues. Holding the build lock fails immediately when another
// rebuild is running.
func Build(ctx context.Context, cfg types.IndexConfig, w io.Writer) (BuildSummary, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(cfg.DataDir, "researchers.db")
	}

	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return BuildSummary{}, fmt.Errorf("acquiring build lock: %w", err)
	}
	if !locked {
		return BuildSummary{}, fmt.Errorf("index rebuild already in progress (lock held on %s.lock)", dbPath)
	}
	defer lock.Unlock()

	inDir := filepath.Join(cfg.DataDir, jsonDir)
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return BuildSummary{}, fmt.Errorf("reading profile directory %s: %w", inDir, err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return BuildSummary{}, fmt.Errorf("creating database directory: %w", err)
	}

	// Build under a temporary name, publish with a rename.
	tmpPath := filepath.Join(filepath.Dir(dbPath), ".build-researchers.db.tmp")
	os.Remove(tmpPath)

	db, err := sql.Open("sqlite3", tmpPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return BuildSummary{}, fmt.Errorf("opening build database: %w", err)
	}

	summary, buildErr := buildInto(ctx, db, entries, inDir, w)
	closeErr := db.Close()
	if buildErr != nil {
		os.Remove(tmpPath)
		return summary, buildErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return summary, fmt.Errorf("closing build database: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dbPath); err != nil {
		os.Remove(tmpPath)
		return summary, fmt.Errorf("publishing index: %w", err)
	}
	// WAL sidecars of a previous database are stale after the swap.
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")

	fmt.Fprintf(w, "\nindexed: %d researchers, %d achievements, %d failed\n",
		summary.Researchers, summary.Achievements, summary.Failed)
	return summary, nil
}

func buildInto(ctx context.Context, db *sql.DB, entries []os.DirEntry, inDir string, w io.Writer) (BuildSummary, error) {
	if err := createSchema(db); err != nil {
		return BuildSummary{}, err
	}

	// Sort for a deterministic insert order; repeated builds from the
	// same input produce identical databases.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var summary BuildSummary

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, name := range names {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		id := strings.TrimSuffix(name, ".json")

		data, err := os.ReadFile(filepath.Join(inDir, name))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", id, err)
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, id)
			continue
		}

		var profile types.Profile
		if err := json.Unmarshal(data, &profile); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", id, err)
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, id)
			continue
		}
		if profile.ID == "" {
			profile.ID = id
		}

		// Savepoint per record so a mid-record failure leaves no
		// partial rows behind.
		if _, err := tx.ExecContext(ctx, `SAVEPOINT record`); err != nil {
			return summary, fmt.Errorf("creating savepoint: %w", err)
		}
		n, err := insertProfile(ctx, tx, profile)
		if err != nil {
			tx.ExecContext(ctx, `ROLLBACK TO record`)
			tx.ExecContext(ctx, `RELEASE record`)
			fmt.Fprintf(w, "failed  %s: %v\n", id, err)
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, id)
			continue
		}
		if _, err := tx.ExecContext(ctx, `RELEASE record`); err != nil {
			return summary, fmt.Errorf("releasing savepoint: %w", err)
		}

		fmt.Fprintf(w, "indexed %s (%d achievements)\n", profile.ID, n)
		summary.Researchers++
		summary.Achievements += n
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing index build: %w", err)
	}
	return summary, nil
}

// createSchema creates the relational tables and the two trigram FTS5
// surfaces. The trigram tokenizer sets the engine's minimum indexable
// term length of three characters.
func createSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE researchers (
			id TEXT PRIMARY KEY,
			name_ja TEXT NOT NULL,
			name_en TEXT NOT NULL,
			avatar_url TEXT,
			org1 TEXT,
			org2 TEXT,
			position TEXT,
			profile_url TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE achievements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			researcher_id TEXT NOT NULL,
			section TEXT NOT NULL,
			title_ja TEXT,
			title_en TEXT,
			text_content TEXT NOT NULL,
			url TEXT,
			FOREIGN KEY (researcher_id) REFERENCES researchers(id)
		)`,
		`CREATE VIRTUAL TABLE researchers_fts USING fts5(
			id UNINDEXED,
			name_ja,
			name_en,
			org1,
			org2,
			position,
			tokenize='trigram'
		)`,
		`CREATE VIRTUAL TABLE achievements_fts USING fts5(
			id UNINDEXED,
			researcher_id UNINDEXED,
			section UNINDEXED,
			text_content,
			tokenize='trigram'
		)`,
		`CREATE INDEX idx_researchers_org1 ON researchers(org1)`,
		`CREATE INDEX idx_researchers_org2 ON researchers(org2)`,
		`CREATE INDEX idx_achievements_researcher ON achievements(researcher_id)`,
		`CREATE INDEX idx_achievements_section ON achievements(section)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// insertProfile writes one researcher, its normalized achievements, and
// the matching index rows. Returns the achievement count.
func insertProfile(ctx context.Context, tx *sql.Tx, p types.Profile) (int, error) {
	if p.NameJA == "" || p.NameEN == "" {
		return 0, fmt.Errorf("researcher %s: both display names are required", p.ID)
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO researchers (id, name_ja, name_en, avatar_url, org1, org2, position, profile_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.NameJA, p.NameEN, p.AvatarURL, p.Org1, p.Org2, p.Position, p.ProfileURL,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting researcher: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO researchers_fts (id, name_ja, name_en, org1, org2, position)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.NameJA, p.NameEN, p.Org1, p.Org2, p.Position,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting identity index row: %w", err)
	}

	achievements := normalize.Achievements(p)
	for _, a := range achievements {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO achievements (researcher_id, section, title_ja, title_en, text_content, url)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			a.ResearcherID, string(a.Section), a.TitleJA, a.TitleEN, a.Text, a.URL,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting achievement: %w", err)
		}

		rowID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading achievement id: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO achievements_fts (id, researcher_id, section, text_content)
			 VALUES (?, ?, ?, ?)`,
			rowID, a.ResearcherID, string(a.Section), a.Text,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting content index row: %w", err)
		}
	}

	return len(achievements), nil
}
