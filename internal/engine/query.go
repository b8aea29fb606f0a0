// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/profiledir/pkg/types"
)

// MinIndexedTermLength is the trigram tokenizer's minimum indexable
// term length, in characters. Queries with any shorter term cannot use
// the content index and fall back to a substring scan.
const MinIndexedTermLength = 3

// Params are the search inputs: an optional free-text query plus
// filter predicates, with offset/limit pagination.
type Params struct {
	// Query is the raw user query. Empty means filter-only listing.
	Query string

	// Orgs filters to researchers affiliated with any of the named
	// organizations.
	Orgs []string

	// Initial filters by the first character of the English name,
	// matching the stored casing exactly.
	Initial string

	Limit  int
	Offset int
}

// planKind discriminates the two query strategies plus the no-query case.
type planKind int

const (
	planNone planKind = iota
	planIndexed
	planFallback
)

// queryPlan is the strategy selected once per query and carried through
// candidate selection, counting, and snippet generation, so the two
// paths cannot drift apart.
type queryPlan struct {
	kind planKind

	// match is the FTS5 MATCH expression (indexed plan).
	match string

	// pattern is the escaped LIKE pattern (fallback plan).
	pattern string

	// terms are the spans the snippet generator highlights: the
	// individual terms for the indexed plan, the whole query string
	// for the fallback plan. The asymmetry mirrors the match
	// semantics of each path.
	terms []string
}

// planQuery selects the strategy for a raw query string. Terms are
// whitespace-split; if every term is at least MinIndexedTermLength
// characters the indexed plan applies, with multiple terms OR-joined
// (recall-favoring, deliberately not AND). Otherwise the whole query
// is matched as one literal substring.
func planQuery(q string) queryPlan {
	terms := strings.Fields(q)
	if len(terms) == 0 {
		return queryPlan{kind: planNone}
	}

	indexable := true
	for _, t := range terms {
		if utf8.RuneCountInString(t) < MinIndexedTermLength {
			indexable = false
			break
		}
	}

	if !indexable {
		return fallbackPlan(q)
	}

	quoted := make([]string, len(terms))
	for i, t := range terms {
		// FTS5 string syntax; doubled quotes escape embedded ones.
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return queryPlan{
		kind:  planIndexed,
		match: strings.Join(quoted, " OR "),
		terms: terms,
	}
}

// fallbackPlan builds the literal-substring plan for the whole query.
func fallbackPlan(q string) queryPlan {
	return queryPlan{
		kind:    planFallback,
		pattern: "%" + escapeLike(q) + "%",
		terms:   []string{q},
	}
}

// escapeLike neutralizes LIKE metacharacters; queries use ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Search returns one ordered page of researchers matching the query and
// filters, with up to maxSnippets highlighted achievement excerpts per
// researcher. Total is the unpaginated count under the same predicate.
// An empty result is a normal response.
func (s *Store) Search(ctx context.Context, p Params) (types.Page, error) {
	plan := planQuery(p.Query)

	researchers, err := s.candidates(ctx, plan, p)
	if err != nil && plan.kind == planIndexed {
		// An unplannable indexed query degrades to the substring scan
		// instead of erroring.
		plan = fallbackPlan(p.Query)
		researchers, err = s.candidates(ctx, plan, p)
	}
	if err != nil {
		return types.Page{}, err
	}

	total, err := s.countPlan(ctx, plan, p)
	if err != nil {
		return types.Page{}, err
	}

	hits := make([]types.SearchHit, 0, len(researchers))
	for _, r := range researchers {
		hit := types.SearchHit{Researcher: r}
		if plan.kind != planNone {
			snippets, err := s.matchingSnippets(ctx, plan, r.ID)
			if err != nil {
				return types.Page{}, err
			}
			hit.Snippets = snippets
		}
		hits = append(hits, hit)
	}

	return types.Page{Total: total, Researchers: hits}, nil
}

// Count mirrors Search's candidate-set computation without
// materializing rows or applying pagination.
func (s *Store) Count(ctx context.Context, p Params) (int, error) {
	plan := planQuery(p.Query)
	n, err := s.countPlan(ctx, plan, p)
	if err != nil && plan.kind == planIndexed {
		n, err = s.countPlan(ctx, fallbackPlan(p.Query), p)
	}
	return n, err
}

// candidates runs the plan's researcher-selection query: ordered by
// English name (id tiebreak), filters intersected, pagination last.
func (s *Store) candidates(ctx context.Context, plan queryPlan, p Params) ([]types.Researcher, error) {
	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(
		`SELECT r.id, r.name_ja, r.name_en, r.avatar_url, r.org1, r.org2, r.position, r.profile_url
		FROM researchers r`)
	appendMatchJoin(&qb, &args, plan)
	qb.WriteString(` WHERE 1=1`)
	appendFilters(&qb, &args, p)
	qb.WriteString(` ORDER BY r.name_en ASC, r.id ASC`)

	if p.Limit > 0 {
		qb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, p.Limit, p.Offset)
	} else if p.Offset > 0 {
		qb.WriteString(` LIMIT -1 OFFSET ?`)
		args = append(args, p.Offset)
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying researchers: %w", err)
	}
	defer rows.Close()

	var out []types.Researcher
	for rows.Next() {
		var r types.Researcher
		if err := rows.Scan(&r.ID, &r.NameJA, &r.NameEN, &r.AvatarURL,
			&r.Org1, &r.Org2, &r.Position, &r.ProfileURL); err != nil {
			return nil, fmt.Errorf("scanning researcher row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// countPlan counts distinct matching researchers under the plan and filters.
func (s *Store) countPlan(ctx context.Context, plan queryPlan, p Params) (int, error) {
	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(`SELECT COUNT(*) FROM researchers r`)
	appendMatchJoin(&qb, &args, plan)
	qb.WriteString(` WHERE 1=1`)
	appendFilters(&qb, &args, p)

	var n int
	if err := s.db.QueryRowContext(ctx, qb.String(), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting researchers: %w", err)
	}
	return n, nil
}

// appendMatchJoin restricts researchers to those owning a matching
// achievement, per the plan. The no-query plan adds nothing.
func appendMatchJoin(qb *strings.Builder, args *[]any, plan queryPlan) {
	switch plan.kind {
	case planIndexed:
		qb.WriteString(`
		JOIN (SELECT DISTINCT af.researcher_id AS rid
		      FROM achievements_fts af
		      WHERE achievements_fts MATCH ?) m ON m.rid = r.id`)
		*args = append(*args, plan.match)
	case planFallback:
		qb.WriteString(`
		JOIN (SELECT DISTINCT a.researcher_id AS rid
		      FROM achievements a
		      WHERE a.text_content LIKE ? ESCAPE '\') m ON m.rid = r.id`)
		*args = append(*args, plan.pattern)
	case planNone:
	}
}

// appendFilters intersects the org and initial predicates.
func appendFilters(qb *strings.Builder, args *[]any, p Params) {
	if len(p.Orgs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(p.Orgs)), ",")
		fmt.Fprintf(qb, " AND (r.org1 IN (%s) OR r.org2 IN (%s))", placeholders, placeholders)
		for i := 0; i < 2; i++ {
			for _, org := range p.Orgs {
				*args = append(*args, org)
			}
		}
	}
	if p.Initial != "" {
		qb.WriteString(` AND substr(r.name_en, 1, 1) = ?`)
		*args = append(*args, p.Initial)
	}
}

// matchingSnippets fetches the researcher's matching achievements under
// the plan and renders one excerpt per achievement, capped at
// maxSnippets. Both plans go through the same excerpt function so the
// output format never differs by plan.
func (s *Store) matchingSnippets(ctx context.Context, plan queryPlan, researcherID string) ([]types.Snippet, error) {
	var (
		query string
		args  []any
	)

	switch plan.kind {
	case planIndexed:
		query = `SELECT a.section, a.title_ja, a.title_en, a.text_content, a.url
			FROM achievements_fts af
			JOIN achievements a ON a.id = af.id
			WHERE af.researcher_id = ? AND achievements_fts MATCH ?
			ORDER BY a.id LIMIT ?`
		args = []any{researcherID, plan.match, s.maxSnippets}
	case planFallback:
		query = `SELECT section, title_ja, title_en, text_content, url
			FROM achievements
			WHERE researcher_id = ? AND text_content LIKE ? ESCAPE '\'
			ORDER BY id LIMIT ?`
		args = []any{researcherID, plan.pattern, s.maxSnippets}
	default:
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying matching achievements: %w", err)
	}
	defer rows.Close()

	var snippets []types.Snippet
	for rows.Next() {
		var (
			section string
			sn      types.Snippet
			text    string
		)
		if err := rows.Scan(&section, &sn.TitleJA, &sn.TitleEN, &text, &sn.URL); err != nil {
			return nil, fmt.Errorf("scanning achievement row: %w", err)
		}
		sn.Section = types.Section(section)
		sn.Label = s.labels.SectionJA(sn.Section)
		sn.Text = Excerpt(text, plan.terms, s.snippetContext)
		snippets = append(snippets, sn)
	}
	return snippets, rows.Err()
}

// SearchIdentity matches the identity index (names, organizations,
// position) instead of achievement content. Short queries use the same
// substring fallback discipline as the content path.
func (s *Store) SearchIdentity(ctx context.Context, query string, limit int) ([]types.Researcher, error) {
	plan := planQuery(query)
	if plan.kind == planNone {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var (
		sqlText string
		args    []any
	)
	switch plan.kind {
	case planIndexed:
		sqlText = `SELECT r.id, r.name_ja, r.name_en, r.avatar_url, r.org1, r.org2, r.position, r.profile_url
			FROM researchers_fts rf
			JOIN researchers r ON r.id = rf.id
			WHERE researchers_fts MATCH ?
			ORDER BY r.name_en, r.id LIMIT ?`
		args = []any{plan.match, limit}
	case planFallback:
		sqlText = `SELECT r.id, r.name_ja, r.name_en, r.avatar_url, r.org1, r.org2, r.position, r.profile_url
			FROM researchers r
			WHERE r.name_ja LIKE ? ESCAPE '\' OR r.name_en LIKE ? ESCAPE '\'
			   OR r.position LIKE ? ESCAPE '\'
			ORDER BY r.name_en, r.id LIMIT ?`
		args = []any{plan.pattern, plan.pattern, plan.pattern, limit}
	}

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("querying identity index: %w", err)
	}
	defer rows.Close()

	var out []types.Researcher
	for rows.Next() {
		var r types.Researcher
		if err := rows.Scan(&r.ID, &r.NameJA, &r.NameEN, &r.AvatarURL,
			&r.Org1, &r.Org2, &r.Position, &r.ProfileURL); err != nil {
			return nil, fmt.Errorf("scanning researcher row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
