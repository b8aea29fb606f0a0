// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Section tags one achievement with the profile section it came from.
type Section string

const (
	SectionPapers                 Section = "papers"
	SectionBooks                  Section = "books"
	SectionPresentations          Section = "presentations"
	SectionAwards                 Section = "awards"
	SectionResearchInterests      Section = "research_interests"
	SectionResearchAreas          Section = "research_areas"
	SectionResearchProjects       Section = "research_projects"
	SectionMisc                   Section = "misc"
	SectionWorks                  Section = "works"
	SectionResearchExperience     Section = "research_experience"
	SectionEducation              Section = "education"
	SectionCommitteeMemberships   Section = "committee_memberships"
	SectionTeachingExperience     Section = "teaching_experience"
	SectionAssociationMemberships Section = "association_memberships"
)

// SectionMap translates upstream API collection names to internal
// Section tags. Iteration order does not matter; the builder walks the
// upstream keys.
var SectionMap = map[string]Section{
	"published_papers":        SectionPapers,
	"books_etc":               SectionBooks,
	"presentations":           SectionPresentations,
	"awards":                  SectionAwards,
	"research_interests":      SectionResearchInterests,
	"research_areas":          SectionResearchAreas,
	"research_projects":       SectionResearchProjects,
	"misc":                    SectionMisc,
	"works":                   SectionWorks,
	"research_experience":     SectionResearchExperience,
	"education":               SectionEducation,
	"committee_memberships":   SectionCommitteeMemberships,
	"teaching_experience":     SectionTeachingExperience,
	"association_memberships": SectionAssociationMemberships,
}

// APISectionOrder fixes the canonical iteration order over upstream
// collections: fetch requests them in this order and the index builder
// flattens them in this order, so repeated runs behave identically.
var APISectionOrder = []string{
	"published_papers", "books_etc", "presentations", "awards",
	"research_interests", "research_areas", "research_projects", "misc",
	"works", "research_experience", "education", "committee_memberships",
	"teaching_experience", "association_memberships",
}

// Researcher holds one identity record. Records are created during a
// full import and never mutated until the next import.
type Researcher struct {
	// ID is the upstream profile identifier (URL slug).
	ID string `json:"id" yaml:"id"`

	// NameJA and NameEN are the two display-name variants. Both are
	// required non-empty.
	NameJA string `json:"name_ja" yaml:"name_ja"`
	NameEN string `json:"name_en" yaml:"name_en"`

	// AvatarURL is an optional portrait image URL.
	AvatarURL string `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`

	// Org1 and Org2 are organizational affiliations drawn from a fixed
	// small set. Either or both may be empty.
	Org1 string `json:"org1,omitempty" yaml:"org1,omitempty"`
	Org2 string `json:"org2,omitempty" yaml:"org2,omitempty"`

	// Position is the job title string.
	Position string `json:"position" yaml:"position"`

	// ProfileURL is the public profile page URL.
	ProfileURL string `json:"profile_url" yaml:"profile_url"`
}

// Orgs returns the non-empty affiliations in slot order.
func (r Researcher) Orgs() []string {
	var orgs []string
	if r.Org1 != "" {
		orgs = append(orgs, r.Org1)
	}
	if r.Org2 != "" {
		orgs = append(orgs, r.Org2)
	}
	return orgs
}

// Achievement is one scholarly-output entry belonging to a researcher
// and a section. Derived entirely by the normalizer during import.
type Achievement struct {
	// ID is assigned by the index builder (SQLite rowid).
	ID int64 `json:"id" yaml:"id"`

	// ResearcherID links back to the owning Researcher.
	ResearcherID string `json:"researcher_id" yaml:"researcher_id"`

	Section Section `json:"section" yaml:"section"`

	// TitleJA and TitleEN come from the first title-bearing field on
	// the raw item. Either may be empty.
	TitleJA string `json:"title_ja,omitempty" yaml:"title_ja,omitempty"`
	TitleEN string `json:"title_en,omitempty" yaml:"title_en,omitempty"`

	// Text is the searchable content blob: title, authors, venue,
	// description, and date joined with " / ". Never empty for a
	// stored achievement.
	Text string `json:"text" yaml:"text"`

	// URL is the public item URL derived from the upstream identifier.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Snippet is a bounded, highlighted excerpt of one matching achievement.
type Snippet struct {
	Section Section `json:"section"`
	Label   string  `json:"label"`
	Text    string  `json:"text"`
	URL     string  `json:"url,omitempty"`
	TitleJA string  `json:"title_ja,omitempty"`
	TitleEN string  `json:"title_en,omitempty"`
}

// SearchHit pairs a researcher with the snippets that matched.
type SearchHit struct {
	Researcher
	Snippets []Snippet `json:"snippets"`
}

// Page is one ordered page of search results plus the unpaginated total.
type Page struct {
	Total       int         `json:"total"`
	Researchers []SearchHit `json:"researchers"`
}

// FacetCounts holds per-dimension result counts. Recomputed on every
// query, never persisted.
type FacetCounts struct {
	Initials map[string]int `json:"initials"`
	Orgs     map[string]int `json:"orgs"`
}
