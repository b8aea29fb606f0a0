// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine answers search, count, and facet queries over the
// index database. All operations are side-effect-free reads of the
// published snapshot and safe for arbitrary concurrent use; the index
// package owns writes.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	// FTS5 queries need the driver built with -tags sqlite_fts5.
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/profiledir/internal/labels"
	"github.com/pdiddy/profiledir/pkg/types"
)

const (
	defaultMaxSnippets    = 5
	defaultSnippetContext = 50
)

// Store is a read-only handle on the index database.
type Store struct {
	db             *sql.DB
	labels         *labels.Table
	maxSnippets    int
	snippetContext int
}

// Open opens the index database read-only. The label table is injected
// so snippet labels and the facet organization set come from one place.
func Open(cfg types.EngineConfig, table *labels.Table) (*Store, error) {
	if _, err := os.Stat(cfg.DBPath); err != nil {
		return nil, fmt.Errorf("index database %s: %w (run the index command first)", cfg.DBPath, err)
	}

	db, err := sql.Open("sqlite3", "file:"+cfg.DBPath+"?mode=ro&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	maxSnippets := cfg.MaxSnippets
	if maxSnippets <= 0 {
		maxSnippets = defaultMaxSnippets
	}
	snippetContext := cfg.SnippetContext
	if snippetContext <= 0 {
		snippetContext = defaultSnippetContext
	}

	return &Store{
		db:             db,
		labels:         table,
		maxSnippets:    maxSnippets,
		snippetContext: snippetContext,
	}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Researcher looks up one identity record by id. found is false when
// the id is unknown.
func (s *Store) Researcher(ctx context.Context, id string) (types.Researcher, bool, error) {
	var r types.Researcher
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name_ja, name_en, avatar_url, org1, org2, position, profile_url
		 FROM researchers WHERE id = ?`, id,
	).Scan(&r.ID, &r.NameJA, &r.NameEN, &r.AvatarURL, &r.Org1, &r.Org2, &r.Position, &r.ProfileURL)

	if err == sql.ErrNoRows {
		return types.Researcher{}, false, nil
	}
	if err != nil {
		return types.Researcher{}, false, fmt.Errorf("looking up researcher %s: %w", id, err)
	}
	return r, true, nil
}

// Organizations exposes the configured affiliation set for the serving
// layer.
func (s *Store) Organizations() []labels.Organization {
	return s.labels.Organizations()
}
