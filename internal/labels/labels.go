// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package labels provides the section-label and organization lookup
// table. The table is loaded once at startup and passed to the engine,
// server, and export stages; nothing in this package holds mutable
// package-level state.
package labels

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/profiledir/pkg/types"
)

// SectionLabel holds the human-readable names for one section.
type SectionLabel struct {
	JA string `yaml:"ja"`
	EN string `yaml:"en"`
}

// Organization is one entry of the fixed affiliation set. ID is the
// short name stored on researcher records; Name is the full name.
type Organization struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Table is the immutable lookup table shared across stages.
type Table struct {
	sections map[types.Section]SectionLabel
	orgs     []Organization
}

// defaultSections carries the compiled-in Japanese and English section names.
var defaultSections = map[types.Section]SectionLabel{
	types.SectionPapers:                 {JA: "論文", EN: "Published Papers"},
	types.SectionBooks:                  {JA: "書籍", EN: "Books"},
	types.SectionPresentations:          {JA: "発表", EN: "Presentations"},
	types.SectionAwards:                 {JA: "受賞", EN: "Awards"},
	types.SectionResearchInterests:      {JA: "研究興味", EN: "Research Interests"},
	types.SectionResearchAreas:          {JA: "研究分野", EN: "Research Areas"},
	types.SectionResearchProjects:       {JA: "研究プロジェクト", EN: "Research Projects"},
	types.SectionMisc:                   {JA: "その他業績", EN: "Misc"},
	types.SectionWorks:                  {JA: "作品", EN: "Works"},
	types.SectionResearchExperience:     {JA: "研究経験", EN: "Research Experience"},
	types.SectionEducation:              {JA: "学歴", EN: "Education"},
	types.SectionCommitteeMemberships:   {JA: "委員会活動", EN: "Committee Memberships"},
	types.SectionTeachingExperience:     {JA: "教育経験", EN: "Teaching Experience"},
	types.SectionAssociationMemberships: {JA: "学会活動", EN: "Association Memberships"},
}

// defaultOrgs lists the affiliation set in display order.
var defaultOrgs = []Organization{
	{ID: "歴博", Name: "国立歴史民俗博物館"},
	{ID: "国文研", Name: "国文学研究資料館"},
	{ID: "国語研", Name: "国立国語研究所"},
	{ID: "日文研", Name: "国際日本文化研究センター"},
	{ID: "地球研", Name: "総合地球環境学研究所"},
	{ID: "民博", Name: "国立民族学博物館"},
	{ID: "機構本部", Name: "機構本部"},
}

// Default returns the compiled-in table.
func Default() *Table {
	return &Table{sections: defaultSections, orgs: defaultOrgs}
}

// overlay is the YAML override file shape. Both keys are optional.
type overlay struct {
	Sections map[string]SectionLabel `yaml:"sections"`
	Orgs     []Organization          `yaml:"organizations"`
}

// Load builds a table from the defaults overlaid with the YAML file at
// path. An empty path returns Default().
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading labels file %s: %w", path, err)
	}

	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing labels file %s: %w", path, err)
	}

	sections := make(map[types.Section]SectionLabel, len(defaultSections))
	for k, v := range defaultSections {
		sections[k] = v
	}
	for k, v := range o.Sections {
		sections[types.Section(k)] = v
	}

	orgs := defaultOrgs
	if len(o.Orgs) > 0 {
		orgs = o.Orgs
	}

	return &Table{sections: sections, orgs: orgs}, nil
}

// SectionJA returns the Japanese label for a section, falling back to
// the raw tag for unknown sections.
func (t *Table) SectionJA(s types.Section) string {
	if l, ok := t.sections[s]; ok && l.JA != "" {
		return l.JA
	}
	return string(s)
}

// SectionEN returns the English label for a section, falling back to
// the raw tag.
func (t *Table) SectionEN(s types.Section) string {
	if l, ok := t.sections[s]; ok && l.EN != "" {
		return l.EN
	}
	return string(s)
}

// Organizations returns the affiliation set in display order. Callers
// must not mutate the returned slice.
func (t *Table) Organizations() []Organization {
	return t.orgs
}

// OrgIDs returns just the short names, in display order.
func (t *Table) OrgIDs() []string {
	ids := make([]string, len(t.orgs))
	for i, o := range t.orgs {
		ids[i] = o.ID
	}
	return ids
}
