// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pdiddy/profiledir/pkg/types"
)

// --- test helpers ---

func parseItem(t *testing.T, raw string) types.RawItem {
	t.Helper()
	var item types.RawItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		t.Fatalf("parsing item: %v", err)
	}
	return item
}

func TestTitlePriority(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantJA string
		wantEN string
	}{
		{
			"localized paper title",
			`{"paper_title":{"ja":"機械学習の応用","en":"Applications of Machine Learning"}}`,
			"機械学習の応用", "Applications of Machine Learning",
		},
		{
			"plain string fills ja only",
			`{"title":"そのままの題名"}`,
			"そのままの題名", "",
		},
		{
			"paper_title beats title",
			`{"title":{"ja":"後者"},"paper_title":{"ja":"前者"}}`,
			"前者", "",
		},
		{
			"empty localized falls through",
			`{"paper_title":{},"title":{"en":"Fallback Title"}}`,
			"", "Fallback Title",
		},
		{
			"nothing usable",
			`{"volume":"3"}`,
			"", "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ja, en := Title(parseItem(t, tt.raw), MaxTitle)
			if ja != tt.wantJA || en != tt.wantEN {
				t.Errorf("Title() = (%q, %q), want (%q, %q)", ja, en, tt.wantJA, tt.wantEN)
			}
		})
	}
}

func TestTitleTruncationCountsRunes(t *testing.T) {
	long := strings.Repeat("あ", MaxTitle+10)
	item := parseItem(t, `{"title":{"ja":"`+long+`"}}`)

	ja, _ := Title(item, MaxTitle)
	if got := len([]rune(ja)); got != MaxTitle {
		t.Errorf("truncated title = %d runes, want %d", got, MaxTitle)
	}
}

func TestContentText(t *testing.T) {
	raw := `{
		"paper_title": {"ja":"研究題目","en":"Research Title"},
		"authors": {"ja":[{"name":"山田太郎"}]},
		"publication_name": {"ja":"学会誌"},
		"description": {"ja":"概要テキスト"},
		"publication_date": "2021-04-01"
	}`
	text := ContentText(parseItem(t, raw))

	for _, part := range []string{"研究題目", "Research Title", "山田太郎", "学会誌", "概要テキスト", "2021-04-01"} {
		if !strings.Contains(text, part) {
			t.Errorf("content blob missing %q: %q", part, text)
		}
	}
	if !strings.Contains(text, " / ") {
		t.Errorf("content blob not joined with separator: %q", text)
	}
}

func TestContentTextAuthorCap(t *testing.T) {
	var names []string
	for _, n := range []string{"一郎", "二郎", "三郎", "四郎", "五郎", "六郎", "七郎"} {
		names = append(names, `{"name":"`+n+`"}`)
	}
	raw := `{"title":"t","authors":{"ja":[` + strings.Join(names, ",") + `]}}`
	text := ContentText(parseItem(t, raw))

	if strings.Contains(text, "六郎") || strings.Contains(text, "七郎") {
		t.Errorf("content blob includes authors past the cap: %q", text)
	}
	if !strings.Contains(text, "五郎") {
		t.Errorf("content blob missing fifth author: %q", text)
	}
}

func TestContentTextEmpty(t *testing.T) {
	if got := ContentText(parseItem(t, `{"referee":true}`)); got != "" {
		t.Errorf("ContentText() = %q, want empty", got)
	}
}

func TestItemURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"api host rewritten",
			`{"@id":"https://api.researchmap.jp/someone/published_papers/123"}`,
			"https://researchmap.jp/someone/published_papers/123",
		},
		{"no identifier", `{"title":"x"}`, ""},
		{"non-string identifier", `{"@id":42}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemURL(parseItem(t, tt.raw)); got != tt.want {
				t.Errorf("ItemURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeDropsEmptyItems(t *testing.T) {
	if _, ok := Normalize(parseItem(t, `{"referee":true}`), types.SectionPapers); ok {
		t.Error("Normalize() kept an item with no content")
	}

	a, ok := Normalize(parseItem(t, `{"title":"有意義な業績"}`), types.SectionPapers)
	if !ok {
		t.Fatal("Normalize() dropped an item with content")
	}
	if a.Section != types.SectionPapers {
		t.Errorf("section = %q, want %q", a.Section, types.SectionPapers)
	}
	if a.TitleJA != "有意義な業績" {
		t.Errorf("title_ja = %q", a.TitleJA)
	}
}

func TestAchievementsSectionOrder(t *testing.T) {
	raw := `{
		"id": "someone",
		"name_ja": "誰か",
		"name_en": "Someone",
		"profile_data": {
			"presentations": {"items":[{"presentation_title":"発表A"}]},
			"published_papers": {"items":[{"paper_title":"論文A"},{"paper_title":"論文B"}]},
			"unknown_section": {"items":[{"title":"捨てられる"}]}
		}
	}`
	var p types.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}

	out := Achievements(p)
	if len(out) != 3 {
		t.Fatalf("achievements = %d, want 3", len(out))
	}
	// Papers come first regardless of map iteration order.
	if out[0].Section != types.SectionPapers || out[1].Section != types.SectionPapers {
		t.Errorf("first sections = %q, %q, want papers", out[0].Section, out[1].Section)
	}
	if out[2].Section != types.SectionPresentations {
		t.Errorf("last section = %q, want presentations", out[2].Section)
	}
	for _, a := range out {
		if a.ResearcherID != "someone" {
			t.Errorf("researcher id = %q, want someone", a.ResearcherID)
		}
	}
}
