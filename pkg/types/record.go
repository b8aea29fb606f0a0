// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
)

// TextFieldKind discriminates the shapes a textual field takes in
// upstream records.
type TextFieldKind int

const (
	// TextAbsent means the key was missing or had an unusable shape.
	TextAbsent TextFieldKind = iota
	// TextPlain means the value was a bare string.
	TextPlain
	// TextLocalized means the value was a map of language code to string.
	TextLocalized
)

// TextField models the duck-typed textual fields of upstream records:
// sometimes a plain string, sometimes {"ja": ..., "en": ...}, sometimes
// missing. Consumers switch on Kind exhaustively instead of inspecting
// raw JSON.
type TextField struct {
	Kind  TextFieldKind
	Plain string
	Langs map[string]string
}

// UnmarshalJSON accepts a string, a language map, or anything else
// (which becomes Absent). Malformed structure is never an error.
func (f *TextField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = TextField{Kind: TextPlain, Plain: s}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err == nil {
		*f = TextField{Kind: TextLocalized, Langs: m}
		return nil
	}
	*f = TextField{Kind: TextAbsent}
	return nil
}

// Lang returns the value for the given language code. Plain values
// occupy the "ja" slot only, matching how upstream stores untranslated
// Japanese text.
func (f TextField) Lang(code string) string {
	switch f.Kind {
	case TextPlain:
		if code == "ja" {
			return f.Plain
		}
		return ""
	case TextLocalized:
		return f.Langs[code]
	default:
		return ""
	}
}

// Fallback returns the Japanese value if non-empty, else the English one.
func (f TextField) Fallback() string {
	if v := f.Lang("ja"); v != "" {
		return v
	}
	return f.Lang("en")
}

// IsAbsent reports whether no usable value is present.
func (f TextField) IsAbsent() bool {
	return f.Kind == TextAbsent || (f.Kind == TextPlain && f.Plain == "") ||
		(f.Kind == TextLocalized && len(f.Langs) == 0)
}

// RawItem is one arbitrarily-shaped achievement record from the
// upstream API. Field access goes through the typed helpers so missing
// or misshapen keys read as absent.
type RawItem map[string]json.RawMessage

// Text extracts the named key as a TextField.
func (it RawItem) Text(key string) TextField {
	raw, ok := it[key]
	if !ok {
		return TextField{Kind: TextAbsent}
	}
	var f TextField
	// UnmarshalJSON never fails; any shape degrades to Absent.
	_ = json.Unmarshal(raw, &f)
	return f
}

// String extracts the named key as a plain string, or "" when the
// value is missing or not a string.
func (it RawItem) String(key string) string {
	raw, ok := it[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Scalar extracts the named key rendered as a string: strings come back
// as-is, numbers in their JSON form. Other shapes read as "".
func (it RawItem) Scalar(key string) string {
	raw, ok := it[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// Authors extracts the named key as {"ja": [{"name": ...}, ...], ...}
// and returns the name list for each language present.
func (it RawItem) Authors(key string) map[string][]string {
	raw, ok := it[key]
	if !ok {
		return nil
	}
	var byLang map[string][]json.RawMessage
	if err := json.Unmarshal(raw, &byLang); err != nil {
		return nil
	}
	out := make(map[string][]string, len(byLang))
	for lang, entries := range byLang {
		var names []string
		for _, raw := range entries {
			// A malformed entry drops alone; the rest of the list survives.
			var e struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(raw, &e); err != nil {
				continue
			}
			if e.Name != "" {
				names = append(names, e.Name)
			}
		}
		out[lang] = names
	}
	return out
}

// SectionItems is one upstream collection: {"items": [...]} or a bare
// array. Unwrap handles both, dropping non-object entries.
type SectionItems struct {
	Items []RawItem
}

// UnmarshalJSON accepts either collection shape. Anything else yields
// an empty item list.
func (c *SectionItems) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Items []RawItem `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Items != nil {
		c.Items = wrapped.Items
		return nil
	}
	var bare []RawItem
	if err := json.Unmarshal(data, &bare); err == nil {
		c.Items = bare
		return nil
	}
	c.Items = nil
	return nil
}

// Profile is the on-disk shape of one fetched researcher: roster
// identity fields plus the raw per-section API payloads.
type Profile struct {
	Researcher `yaml:",inline"`

	// Sections maps upstream collection names (e.g. "published_papers")
	// to their raw item lists.
	Sections map[string]SectionItems `json:"profile_data" yaml:"profile_data"`
}
