// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"strings"
	"testing"
)

func TestExcerptHighlightsMatch(t *testing.T) {
	text := "A study of Quantum computing methods applied to archival catalogs"
	got := Excerpt(text, []string{"quantum"}, 50)

	if !strings.Contains(got, "<mark>Quantum</mark>") {
		t.Errorf("excerpt does not highlight with original casing: %q", got)
	}
	if strings.Contains(got, ellipsis) {
		t.Errorf("short text should not be truncated: %q", got)
	}
}

func TestExcerptWindowing(t *testing.T) {
	const context = 10
	pad := strings.Repeat("x", 40)
	text := pad + "needle" + pad
	got := Excerpt(text, []string{"needle"}, context)

	if !strings.HasPrefix(got, ellipsis) || !strings.HasSuffix(got, ellipsis) {
		t.Fatalf("interior match must carry both ellipses: %q", got)
	}

	// Strip highlight markup and ellipses; what remains must be a
	// contiguous substring of the source.
	plain := strings.NewReplacer(markOpen, "", markClose, "", ellipsis, "").Replace(got)
	if !strings.Contains(text, plain) {
		t.Errorf("excerpt body %q is not a substring of the source", plain)
	}
	if want := 2*context + len("needle"); len(plain) != want {
		t.Errorf("window = %d chars, want %d", len(plain), want)
	}
}

func TestExcerptHighlightsEveryOccurrenceInWindow(t *testing.T) {
	text := "alpha beta alpha gamma alpha"
	got := Excerpt(text, []string{"alpha"}, 50)

	if n := strings.Count(got, markOpen); n != 3 {
		t.Errorf("highlighted %d occurrences, want 3: %q", n, got)
	}
}

func TestExcerptFirstTermSelectsWindow(t *testing.T) {
	text := "first comes zebra and much later comes yak"
	got := Excerpt(text, []string{"missingterm", "zebra", "yak"}, 5)

	if !strings.Contains(got, "<mark>zebra</mark>") {
		t.Errorf("window should center on the first occurring term: %q", got)
	}
}

func TestExcerptDegradedPrefix(t *testing.T) {
	t.Run("long text truncated", func(t *testing.T) {
		text := strings.Repeat("a", degradedPrefixLen+20)
		got := Excerpt(text, []string{"zzz"}, 50)
		if got != strings.Repeat("a", degradedPrefixLen)+ellipsis {
			t.Errorf("degraded output = %q", got)
		}
	})

	t.Run("short text verbatim", func(t *testing.T) {
		got := Excerpt("short text", []string{"zzz"}, 50)
		if got != "short text" {
			t.Errorf("degraded output = %q", got)
		}
		if strings.Contains(got, markOpen) {
			t.Error("degraded output must not highlight")
		}
	})
}

func TestExcerptMultibyte(t *testing.T) {
	text := "これは日本語のテキストで深層学習という言葉を含んでいます"
	got := Excerpt(text, []string{"深層学習"}, 5)

	if !strings.Contains(got, "<mark>深層学習</mark>") {
		t.Errorf("multibyte match not highlighted: %q", got)
	}
	// Window is counted in runes, not bytes.
	plain := strings.NewReplacer(markOpen, "", markClose, "", ellipsis, "").Replace(got)
	if want := 5 + 4 + 5; len([]rune(plain)) != want {
		t.Errorf("window = %d runes, want %d: %q", len([]rune(plain)), want, got)
	}
}

func TestExcerptEmptyText(t *testing.T) {
	if got := Excerpt("", []string{"term"}, 50); got != "" {
		t.Errorf("Excerpt(\"\") = %q, want empty", got)
	}
}
