// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/profiledir/pkg/types"
)

// facetConcurrency bounds the parallel count queries per Facets call.
const facetConcurrency = 8

// initialsAZ enumerates the initial-letter facet dimension.
var initialsAZ = func() []string {
	out := make([]string, 0, 26)
	for c := 'A'; c <= 'Z'; c++ {
		out = append(out, string(c))
	}
	return out
}()

// Facets computes per-initial and per-organization result counts for a
// query. Each cell is an independent Count over the read-only snapshot,
// so the cells run in parallel. Initial counts keep any org filter
// applied (initials partition researchers, so their sum equals the
// org-filtered total); org counts vary the org dimension itself and
// apply only the query.
func (s *Store) Facets(ctx context.Context, query string, orgs []string) (types.FacetCounts, error) {
	fc := types.FacetCounts{
		Initials: make(map[string]int, len(initialsAZ)),
		Orgs:     make(map[string]int, len(s.labels.OrgIDs())),
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(facetConcurrency)

	for _, initial := range initialsAZ {
		g.Go(func() error {
			n, err := s.Count(ctx, Params{Query: query, Orgs: orgs, Initial: initial})
			if err != nil {
				return err
			}
			mu.Lock()
			fc.Initials[initial] = n
			mu.Unlock()
			return nil
		})
	}

	for _, org := range s.labels.OrgIDs() {
		g.Go(func() error {
			n, err := s.Count(ctx, Params{Query: query, Orgs: []string{org}})
			if err != nil {
				return err
			}
			mu.Lock()
			fc.Orgs[org] = n
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return types.FacetCounts{}, err
	}
	return fc, nil
}
