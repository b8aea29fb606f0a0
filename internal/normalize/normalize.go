// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize flattens raw upstream profile items into searchable
// Achievement records. Missing or misshapen fields read as absent and
// never produce an error; an item whose content blob comes out empty is
// dropped.
package normalize

import (
	"strings"

	"github.com/pdiddy/profiledir/pkg/types"
)

const (
	// MaxTitle bounds extracted title length, in characters.
	MaxTitle = 500
	// MaxSummaryTitle is the tighter bound used by the export stage.
	MaxSummaryTitle = 200
	// maxDescription bounds the description part of the content blob.
	maxDescription = 300
	// maxAuthors bounds how many author names enter the content blob.
	maxAuthors = 5

	// apiHost and publicHost rewrite item identifiers into public URLs.
	apiHost    = "api.researchmap.jp"
	publicHost = "researchmap.jp"
)

// titleFields lists title-bearing keys in priority order. The first
// key present on an item wins.
var titleFields = []string{
	"paper_title", "title", "award_title", "presentation_title",
	"research_project_title", "name", "work_title", "research_field",
	"subject", "committee_name", "association_name", "organization_name",
	"course_title", "field",
}

// venueFields lists venue/publisher/affiliation keys. Unlike titles,
// every matching key contributes to the content blob.
var venueFields = []string{"publication_name", "publisher", "affiliation", "organization"}

// descriptionFields lists description keys; the first with text wins.
var descriptionFields = []string{"summary", "description", "content", "outline"}

// dateFields lists date-like keys; the first non-empty wins.
var dateFields = []string{"publication_date", "year", "start_year", "award_date"}

// Title returns the Japanese and English titles of an item, each
// truncated to maxLen characters. A localized field fills both slots
// independently; a plain string fills only the Japanese slot.
func Title(item types.RawItem, maxLen int) (ja, en string) {
	for _, field := range titleFields {
		if _, present := item[field]; !present {
			continue
		}

		tf := item.Text(field)
		switch tf.Kind {
		case types.TextLocalized:
			ja = tf.Lang("ja")
			en = tf.Lang("en")
			if ja != "" || en != "" {
				return truncate(ja, maxLen), truncate(en, maxLen)
			}
		case types.TextPlain:
			return truncate(tf.Plain, maxLen), ""
		case types.TextAbsent:
			// Key present but unusable; keep looking.
		}
	}
	return "", ""
}

// ContentText builds the searchable blob: title, authors, venue,
// description, and date joined with " / ". Absent parts contribute
// nothing. An all-absent item yields "".
func ContentText(item types.RawItem) string {
	var parts []string

	ja, en := Title(item, MaxTitle)
	if ja != "" {
		parts = append(parts, ja)
	}
	if en != "" {
		parts = append(parts, en)
	}

	if names := firstAuthorList(item); len(names) > 0 {
		if len(names) > maxAuthors {
			names = names[:maxAuthors]
		}
		parts = append(parts, strings.Join(names, " "))
	}

	for _, key := range venueFields {
		if _, present := item[key]; !present {
			continue
		}
		if v := item.Text(key).Fallback(); v != "" {
			parts = append(parts, v)
		}
	}

	for _, key := range descriptionFields {
		if _, present := item[key]; !present {
			continue
		}
		if v := item.Text(key).Fallback(); v != "" {
			parts = append(parts, truncate(v, maxDescription))
			break
		}
	}

	for _, key := range dateFields {
		if v := item.Scalar(key); v != "" {
			parts = append(parts, v)
			break
		}
	}

	return strings.Join(parts, " / ")
}

// ItemURL derives the public item URL from the upstream identifier, or
// "" when the item carries none.
func ItemURL(item types.RawItem) string {
	id := item.String("@id")
	if id == "" {
		return ""
	}
	return strings.Replace(id, apiHost, publicHost, 1)
}

// Normalize flattens one raw item into an Achievement. ok is false when
// the content blob is empty, meaning the item carries no search value
// and must not be stored.
func Normalize(item types.RawItem, section types.Section) (types.Achievement, bool) {
	text := ContentText(item)
	if text == "" {
		return types.Achievement{}, false
	}

	ja, en := Title(item, MaxTitle)
	return types.Achievement{
		Section: section,
		TitleJA: ja,
		TitleEN: en,
		Text:    text,
		URL:     ItemURL(item),
	}, true
}

// Achievements flattens every section of a fetched profile, in fixed
// section order, dropping empty items.
func Achievements(p types.Profile) []types.Achievement {
	if len(p.Sections) == 0 {
		return nil
	}

	var out []types.Achievement
	for _, api := range types.APISectionOrder {
		section, ok := types.SectionMap[api]
		if !ok {
			continue
		}
		coll, ok := p.Sections[api]
		if !ok {
			continue
		}
		for _, item := range coll.Items {
			a, ok := Normalize(item, section)
			if !ok {
				continue
			}
			a.ResearcherID = p.ID
			out = append(out, a)
		}
	}
	return out
}

// firstAuthorList returns the first non-empty language's author names,
// Japanese before English.
func firstAuthorList(item types.RawItem) []string {
	byLang := item.Authors("authors")
	for _, lang := range []string{"ja", "en"} {
		if names := byLang[lang]; len(names) > 0 {
			return names
		}
	}
	return nil
}

// truncate bounds s to max characters. Upstream text is multi-byte, so
// the cut counts runes, not bytes.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
