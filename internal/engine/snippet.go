// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"strings"
	"unicode"
)

// degradedPrefixLen is the plain-prefix length used when no term
// occurs in the text (a defined degraded output, not an error).
const degradedPrefixLen = 100

const (
	markOpen  = "<mark>"
	markClose = "</mark>"
	ellipsis  = "..."
)

// Excerpt produces a bounded excerpt of text centered on the first
// case-insensitive occurrence of any term, with context characters of
// surrounding text on each side, ellipses where truncated, and every
// occurrence of the matched term inside the window wrapped in <mark>
// tags with its original casing. Terms are tried in order; the first
// that occurs anywhere in the text selects the window.
//
// When no term occurs, the first 100 characters are returned with a
// trailing ellipsis if the text was longer, and no highlight.
func Excerpt(text string, terms []string, context int) string {
	if text == "" {
		return ""
	}

	textRunes := []rune(text)
	lower := lowerRunes(textRunes)

	pos := -1
	var match []rune
	for _, t := range terms {
		tr := lowerRunes([]rune(t))
		if len(tr) == 0 {
			continue
		}
		if p := indexRunes(lower, tr, 0); p >= 0 {
			pos = p
			match = tr
			break
		}
	}

	if pos < 0 {
		if len(textRunes) > degradedPrefixLen {
			return string(textRunes[:degradedPrefixLen]) + ellipsis
		}
		return text
	}

	start := pos - context
	if start < 0 {
		start = 0
	}
	end := pos + len(match) + context
	if end > len(textRunes) {
		end = len(textRunes)
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	highlightAll(&b, textRunes[start:end], lower[start:end], match)
	if end < len(textRunes) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

// highlightAll writes window to b with every occurrence of term (found
// case-insensitively via lowerWindow) wrapped in mark tags, preserving
// the original casing of the matched spans.
func highlightAll(b *strings.Builder, window, lowerWindow, term []rune) {
	from := 0
	for {
		p := indexRunes(lowerWindow, term, from)
		if p < 0 {
			b.WriteString(string(window[from:]))
			return
		}
		b.WriteString(string(window[from:p]))
		b.WriteString(markOpen)
		b.WriteString(string(window[p : p+len(term)]))
		b.WriteString(markClose)
		from = p + len(term)
	}
}

// lowerRunes lowercases rune-by-rune, preserving length so positions
// map back to the original text.
func lowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// indexRunes returns the first index >= from where needle occurs in
// haystack, or -1.
func indexRunes(haystack, needle []rune, from int) int {
	if len(needle) == 0 {
		return -1
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		found := true
		for j, r := range needle {
			if haystack[i+j] != r {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}
	return -1
}
