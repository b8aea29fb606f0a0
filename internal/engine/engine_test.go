package engine

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/profiledir/internal/index"
	"github.com/pdiddy/profiledir/internal/labels"
	"github.com/pdiddy/profiledir/pkg/types"
)

// --- test helpers ---

// fixtureProfiles is the shared dataset: three researchers across three
// organizations, with achievement text chosen so each query path has a
// known answer.
var fixtureProfiles = []string{
	`{
		"id": "alice",
		"name_ja": "アリス",
		"name_en": "Alice Smith",
		"org1": "歴博",
		"position": "教授",
		"profile_url": "https://researchmap.jp/alice",
		"profile_data": {
			"published_papers": {"items":[
				{"paper_title":{"ja":"深層学習の研究","en":"Deep Learning Research"}}
			]},
			"misc": {"items":[
				{"title":"Proxy Networks Overview"}
			]}
		}
	}`,
	`{
		"id": "bob",
		"name_ja": "ボブ",
		"name_en": "Bob Tanaka",
		"org1": "国文研",
		"org2": "歴博",
		"position": "准教授",
		"profile_url": "https://researchmap.jp/bob",
		"profile_data": {
			"published_papers": {"items":[
				{"paper_title":{"en":"Quantum Computing Advances"}}
			]}
		}
	}`,
	`{
		"id": "carol",
		"name_ja": "キャロル",
		"name_en": "Carol Yamada",
		"org1": "国語研",
		"position": "助教",
		"profile_url": "https://researchmap.jp/carol",
		"profile_data": {
			"presentations": {"items":[
				{"presentation_title":"Historical Linguistics Survey"}
			]},
			"books_etc": {"items":[
				{"title":"Historical Grammar Handbook"}
			]}
		}
	}`,
}

func buildFixture(t *testing.T) string {
	t.Helper()
	dataDir := t.TempDir()
	jsonDir := filepath.Join(dataDir, "json")
	if err := os.MkdirAll(jsonDir, 0o755); err != nil {
		t.Fatal(err)
	}

	for _, raw := range fixtureProfiles {
		var probe struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(jsonDir, probe.ID+".json")
		if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := types.IndexConfig{DataDir: dataDir}
	if _, err := index.Build(context.Background(), cfg, io.Discard); err != nil {
		t.Fatalf("building fixture index: %v", err)
	}
	return filepath.Join(dataDir, "researchers.db")
}

func testStore(t *testing.T) *Store {
	t.Helper()
	dbPath := buildFixture(t)

	store, err := Open(types.EngineConfig{DBPath: dbPath}, labels.Default())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func ids(hits []types.SearchHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- search scenarios ---

func TestSearchEmptyQueryListsEveryone(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	page, err := store.Search(ctx, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
	// Ordered by English name.
	if got := ids(page.Researchers); !equalIDs(got, []string{"alice", "bob", "carol"}) {
		t.Errorf("order = %v", got)
	}
	for _, hit := range page.Researchers {
		if len(hit.Snippets) != 0 {
			t.Errorf("empty query produced snippets for %s", hit.ID)
		}
	}
}

func TestSearchWhitespaceQueryListsEveryone(t *testing.T) {
	store := testStore(t)

	// A query of pure whitespace carries no terms, so it behaves as no
	// query at all rather than substring-matching the whitespace.
	page, err := store.Search(context.Background(), Params{Query: "  \t "})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
	for _, hit := range page.Researchers {
		if len(hit.Snippets) != 0 {
			t.Errorf("whitespace query produced snippets for %s", hit.ID)
		}
	}
}

func TestSearchShortQueryUsesSubstringSemantics(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// "xy" only occurs inside the token "Proxy", never as a delimited
	// token, so a hit proves the substring scan ran rather than the
	// token index.
	page, err := store.Search(ctx, Params{Query: "xy"})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(page.Researchers); !equalIDs(got, []string{"alice"}) {
		t.Fatalf("hits = %v, want [alice]", got)
	}
	if page.Total != 1 {
		t.Errorf("total = %d, want 1", page.Total)
	}

	sn := page.Researchers[0].Snippets
	if len(sn) != 1 {
		t.Fatalf("snippets = %d, want 1", len(sn))
	}
	if !strings.Contains(sn[0].Text, "<mark>xy</mark>") {
		t.Errorf("fallback snippet should highlight the whole query: %q", sn[0].Text)
	}
}

func TestSearchIndexedOrUnion(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// One term matches bob, the other matches nobody; OR semantics
	// return the union, not the intersection.
	page, err := store.Search(ctx, Params{Query: "quantum zzzmissingterm"})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(page.Researchers); !equalIDs(got, []string{"bob"}) {
		t.Errorf("hits = %v, want [bob]", got)
	}
}

func TestSearchOrgFilterIntersectsQuery(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	unfiltered, err := store.Search(ctx, Params{Query: "quantum"})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(unfiltered.Researchers); !equalIDs(got, []string{"bob"}) {
		t.Fatalf("query-only hits = %v", got)
	}

	// bob's second affiliation satisfies the filter.
	filtered, err := store.Search(ctx, Params{Query: "quantum", Orgs: []string{"歴博", "国語研"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(filtered.Researchers); !equalIDs(got, []string{"bob"}) {
		t.Errorf("filtered hits = %v, want [bob]", got)
	}

	// A filter that excludes every query match empties the result.
	excluded, err := store.Search(ctx, Params{Query: "quantum", Orgs: []string{"国語研"}})
	if err != nil {
		t.Fatal(err)
	}
	if excluded.Total != 0 || len(excluded.Researchers) != 0 {
		t.Errorf("excluded = %d hits, total %d, want empty", len(excluded.Researchers), excluded.Total)
	}
}

func TestSearchOneSnippetPerAchievement(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	page, err := store.Search(ctx, Params{Query: "historical"})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(page.Researchers); !equalIDs(got, []string{"carol"}) {
		t.Fatalf("hits = %v, want [carol]", got)
	}

	sn := page.Researchers[0].Snippets
	if len(sn) != 2 {
		t.Fatalf("snippets = %d, want one per matching achievement", len(sn))
	}
	for _, s := range sn {
		if strings.Count(s.Text, markOpen) < 1 {
			t.Errorf("snippet without highlight: %q", s.Text)
		}
		if s.Label == "" {
			t.Errorf("snippet without section label: %+v", s)
		}
	}
	// Section order from the build: books before presentations is not
	// guaranteed, but both sections must be present.
	sections := map[types.Section]bool{}
	for _, s := range sn {
		sections[s.Section] = true
	}
	if !sections[types.SectionBooks] || !sections[types.SectionPresentations] {
		t.Errorf("snippet sections = %v", sections)
	}
}

func TestSearchNoMatches(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	page, err := store.Search(ctx, Params{Query: "nosuchtermanywhere"})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 0 {
		t.Errorf("total = %d, want 0", page.Total)
	}
	if len(page.Researchers) != 0 {
		t.Errorf("hits = %v, want empty", ids(page.Researchers))
	}
}

func TestSearchInitialFilter(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	page, err := store.Search(ctx, Params{Initial: "B"})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(page.Researchers); !equalIDs(got, []string{"bob"}) {
		t.Errorf("hits = %v, want [bob]", got)
	}

	// The filter is case-exact: stored names start with uppercase.
	lower, err := store.Search(ctx, Params{Initial: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if lower.Total != 0 {
		t.Errorf("lowercase initial matched %d researchers, want 0", lower.Total)
	}
}

func TestSearchJapaneseQuery(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// Three Japanese characters clear the minimum term length and use
	// the token index.
	page, err := store.Search(ctx, Params{Query: "深層学習"})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(page.Researchers); !equalIDs(got, []string{"alice"}) {
		t.Errorf("hits = %v, want [alice]", got)
	}
}

// --- count / plan consistency ---

func TestCountMatchesSearchTotal(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	cases := []Params{
		{},
		{Query: "historical"},
		{Query: "xy"},
		{Query: "quantum zzzmissingterm"},
		{Orgs: []string{"歴博"}},
		{Query: "quantum", Orgs: []string{"歴博"}},
		{Initial: "A"},
	}

	for _, p := range cases {
		page, err := store.Search(ctx, p)
		if err != nil {
			t.Fatalf("Search(%+v): %v", p, err)
		}
		n, err := store.Count(ctx, p)
		if err != nil {
			t.Fatalf("Count(%+v): %v", p, err)
		}
		if n != page.Total {
			t.Errorf("Count(%+v) = %d, Search total = %d", p, n, page.Total)
		}
	}
}

func TestFilteringNeverGrowsResult(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base, err := store.Count(ctx, Params{Query: "historical"})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []Params{
		{Query: "historical", Orgs: []string{"国語研"}},
		{Query: "historical", Initial: "C"},
		{Query: "historical", Orgs: []string{"歴博"}, Initial: "Z"},
	} {
		n, err := store.Count(ctx, p)
		if err != nil {
			t.Fatal(err)
		}
		if n > base {
			t.Errorf("Count(%+v) = %d exceeds unfiltered %d", p, n, base)
		}
	}
}

// --- pagination ---

func TestPaginationReassemblesFullResult(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	full, err := store.Search(ctx, Params{})
	if err != nil {
		t.Fatal(err)
	}

	var paged []string
	const pageSize = 2
	for offset := 0; ; offset += pageSize {
		page, err := store.Search(ctx, Params{Limit: pageSize, Offset: offset})
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Researchers) == 0 {
			break
		}
		paged = append(paged, ids(page.Researchers)...)
		if page.Total != full.Total {
			t.Errorf("page total = %d, want %d", page.Total, full.Total)
		}
	}

	if !equalIDs(paged, ids(full.Researchers)) {
		t.Errorf("paged = %v, full = %v", paged, ids(full.Researchers))
	}
}

// --- rebuild semantics ---

func TestRebuildIsIdempotent(t *testing.T) {
	dbPath := buildFixture(t)
	dataDir := filepath.Dir(dbPath)

	counts := func() map[string]int {
		store, err := Open(types.EngineConfig{DBPath: dbPath}, labels.Default())
		if err != nil {
			t.Fatal(err)
		}
		defer store.Close()

		out := map[string]int{}
		for _, q := range []string{"", "historical", "quantum", "xy"} {
			n, err := store.Count(context.Background(), Params{Query: q})
			if err != nil {
				t.Fatal(err)
			}
			out[q] = n
		}
		return out
	}

	before := counts()
	if _, err := index.Build(context.Background(), types.IndexConfig{DataDir: dataDir}, io.Discard); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	after := counts()

	for q, n := range before {
		if after[q] != n {
			t.Errorf("count(%q) changed across rebuild: %d -> %d", q, n, after[q])
		}
	}
}

// --- identity and lookup ---

func TestResearcherLookup(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	r, found, err := store.Researcher(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("bob not found")
	}
	if r.NameEN != "Bob Tanaka" || r.Org2 != "歴博" {
		t.Errorf("researcher = %+v", r)
	}

	_, found, err = store.Researcher(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("unknown id reported as found")
	}
}

func TestSearchIdentity(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// Indexed path over the identity surface.
	hits, err := store.SearchIdentity(ctx, "Tanaka", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "bob" {
		t.Errorf("identity hits = %+v, want bob", hits)
	}

	// A short query falls back to a name substring scan.
	hits, err = store.SearchIdentity(ctx, "Bo", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "bob" {
		t.Errorf("fallback identity hits = %+v, want bob", hits)
	}

	// Identity search never consults achievement content.
	hits, err = store.SearchIdentity(ctx, "quantum", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("content term matched identity index: %+v", hits)
	}
}
