// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"testing"
)

func TestFacetsInitialsPartition(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	fc, err := store.Facets(ctx, "", nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(fc.Initials) != 26 {
		t.Fatalf("initials = %d cells, want 26", len(fc.Initials))
	}

	// Initials partition researchers exactly, so their sum equals the
	// unfiltered count.
	sum := 0
	for _, n := range fc.Initials {
		sum += n
	}
	total, err := store.Count(ctx, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if sum != total {
		t.Errorf("initial sum = %d, total = %d", sum, total)
	}

	if fc.Initials["A"] != 1 || fc.Initials["B"] != 1 || fc.Initials["C"] != 1 {
		t.Errorf("initials = A:%d B:%d C:%d, want 1 each",
			fc.Initials["A"], fc.Initials["B"], fc.Initials["C"])
	}
	if fc.Initials["Z"] != 0 {
		t.Errorf("initials[Z] = %d, want 0", fc.Initials["Z"])
	}
}

func TestFacetsInitialsRespectOrgFilter(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	fc, err := store.Facets(ctx, "", []string{"歴博"})
	if err != nil {
		t.Fatal(err)
	}

	sum := 0
	for _, n := range fc.Initials {
		sum += n
	}
	filtered, err := store.Count(ctx, Params{Orgs: []string{"歴博"}})
	if err != nil {
		t.Fatal(err)
	}
	if sum != filtered {
		t.Errorf("initial sum under org filter = %d, filtered count = %d", sum, filtered)
	}
}

func TestFacetsOrgCellsMayOverlap(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	fc, err := store.Facets(ctx, "", nil)
	if err != nil {
		t.Fatal(err)
	}

	// bob belongs to two organizations, so the org cells double-count
	// him and their sum exceeds the researcher total.
	if fc.Orgs["歴博"] != 2 {
		t.Errorf("orgs[歴博] = %d, want 2", fc.Orgs["歴博"])
	}
	if fc.Orgs["国文研"] != 1 {
		t.Errorf("orgs[国文研] = %d, want 1", fc.Orgs["国文研"])
	}

	sum := 0
	for _, n := range fc.Orgs {
		sum += n
	}
	total, err := store.Count(ctx, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if sum <= total {
		t.Errorf("org sum = %d, expected to exceed total %d for the overlap fixture", sum, total)
	}
}

func TestFacetsWithQuery(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	fc, err := store.Facets(ctx, "historical", nil)
	if err != nil {
		t.Fatal(err)
	}

	// Each cell must agree with a direct count under that filter.
	for _, initial := range []string{"A", "B", "C"} {
		n, err := store.Count(ctx, Params{Query: "historical", Initial: initial})
		if err != nil {
			t.Fatal(err)
		}
		if fc.Initials[initial] != n {
			t.Errorf("facet initials[%s] = %d, direct count = %d", initial, fc.Initials[initial], n)
		}
	}
	if fc.Orgs["国語研"] != 1 {
		t.Errorf("orgs[国語研] = %d, want 1", fc.Orgs["国語研"])
	}
	if fc.Orgs["歴博"] != 0 {
		t.Errorf("orgs[歴博] = %d, want 0", fc.Orgs["歴博"])
	}
}
