// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export converts fetched researcher profiles into per-section
// CSV files for the office import template. Sections are grouped into
// three files per researcher: papers (published papers and books),
// presentations, and misc (everything else).
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/profiledir/internal/labels"
	"github.com/pdiddy/profiledir/internal/normalize"
	"github.com/pdiddy/profiledir/pkg/types"
)

// group names the three output files produced per researcher.
type group string

const (
	groupPapers        group = "papers"
	groupPresentations group = "presentations"
	groupMisc          group = "misc"
)

// groupFor routes a section into its output group.
func groupFor(s types.Section) group {
	switch s {
	case types.SectionPapers, types.SectionBooks:
		return groupPapers
	case types.SectionPresentations:
		return groupPresentations
	default:
		return groupMisc
	}
}

var groupColumns = map[group][]string{
	groupPapers: {
		"区分", "題目（原文）", "題目（英訳）", "著者", "掲載誌",
		"巻", "号", "開始頁", "終了頁", "発行年月日", "URL",
	},
	groupPresentations: {
		"題目（原文）", "題目（英訳）", "発表者", "会議名", "発表年月日", "URL",
	},
	groupMisc: {
		"区分", "題目（原文）", "題目（英訳）", "関係者", "年月日", "URL",
	},
}

var (
	dateYMD = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	dateYM  = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	dateY   = regexp.MustCompile(`^(\d{4})$`)
)

// NormalizeDate rewrites an upstream date string into the template's
// YYYYMMDD form, zero-padding missing month and day. Unparseable input
// passes through unchanged.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := dateYMD.FindStringSubmatch(s); m != nil {
		return m[1] + m[2] + m[3]
	}
	if m := dateYM.FindStringSubmatch(s); m != nil {
		return m[1] + m[2] + "00"
	}
	if dateY.MatchString(s) {
		return s + "0000"
	}
	return s
}

// itemDate returns the first date-like value of an item, normalized.
func itemDate(item types.RawItem) string {
	for _, key := range []string{"publication_date", "award_date", "year", "start_year"} {
		if v := item.Scalar(key); v != "" {
			return NormalizeDate(v)
		}
	}
	return ""
}

// itemAuthors joins the item's author names with "; ", preferring the
// Japanese list.
func itemAuthors(item types.RawItem) string {
	byLang := item.Authors("authors")
	for _, lang := range []string{"ja", "en"} {
		if names := byLang[lang]; len(names) > 0 {
			return strings.Join(names, "; ")
		}
	}
	return ""
}

// itemRow renders one item into its group's column layout. ok is false
// when the item carries neither a title nor authors, meaning the row
// would say nothing.
func itemRow(g group, sectionLabel string, item types.RawItem) ([]string, bool) {
	ja, en := normalize.Title(item, normalize.MaxSummaryTitle)
	authors := itemAuthors(item)
	if ja == "" && en == "" && authors == "" {
		return nil, false
	}
	date := itemDate(item)
	url := normalize.ItemURL(item)

	switch g {
	case groupPapers:
		venue := item.Text("publication_name").Fallback()
		return []string{
			sectionLabel, ja, en, authors, venue,
			item.Scalar("volume"), item.Scalar("number"),
			item.Scalar("starting_page"), item.Scalar("ending_page"),
			date, url,
		}, true
	case groupPresentations:
		event := item.Text("event").Fallback()
		if event == "" {
			event = item.Text("publication_name").Fallback()
		}
		return []string{ja, en, authors, event, date, url}, true
	default:
		return []string{sectionLabel, ja, en, authors, date, url}, true
	}
}

// BatchResult holds the outcome of a batch export run.
type BatchResult struct {
	Exported  int
	Skipped   int
	Failed    int
	FailedIDs []string
}

// Total returns the total number of researchers processed.
func (r BatchResult) Total() int {
	return r.Exported + r.Skipped + r.Failed
}

// HasFailures reports whether any researchers failed export.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ExportProfile writes the researcher's CSV files into outDir, one per
// non-empty group, named <id>-<group>.csv. It returns the number of
// files written.
func ExportProfile(p types.Profile, table *labels.Table, outDir string) (int, error) {
	rows := map[group][][]string{}

	for _, api := range types.APISectionOrder {
		section, ok := types.SectionMap[api]
		if !ok {
			continue
		}
		coll, ok := p.Sections[api]
		if !ok {
			continue
		}
		g := groupFor(section)
		label := table.SectionJA(section)
		for _, item := range coll.Items {
			row, ok := itemRow(g, label, item)
			if !ok {
				continue
			}
			rows[g] = append(rows[g], row)
		}
	}

	written := 0
	for _, g := range []group{groupPapers, groupPresentations, groupMisc} {
		if len(rows[g]) == 0 {
			continue
		}
		path := filepath.Join(outDir, fmt.Sprintf("%s-%s.csv", p.ID, g))
		if err := writeCSV(path, groupColumns[g], rows[g]); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// writeCSV writes a UTF-8 CSV with a BOM so the office template's Excel
// import picks up the encoding.
func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ExportBatch converts every fetched profile under cfg.DataDir/json
// into CSV files under cfg.OutputDir, printing per-researcher status to
// w. A researcher whose JSON cannot be read or parsed is counted as
// failed; the batch continues.
func ExportBatch(cfg types.ExportConfig, table *labels.Table, w io.Writer) (BatchResult, error) {
	jsonDir := filepath.Join(cfg.DataDir, "json")
	paths, err := filepath.Glob(filepath.Join(jsonDir, "*.json"))
	if err != nil {
		return BatchResult{}, fmt.Errorf("listing %s: %w", jsonDir, err)
	}
	sort.Strings(paths)

	var result BatchResult
	for _, path := range paths {
		id := strings.TrimSuffix(filepath.Base(path), ".json")

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed:   %s (%v)\n", id, err)
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}

		var p types.Profile
		if err := json.Unmarshal(data, &p); err != nil {
			fmt.Fprintf(w, "failed:   %s (%v)\n", id, err)
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		if p.ID == "" {
			p.ID = id
		}

		n, err := ExportProfile(p, table, cfg.OutputDir)
		if err != nil {
			fmt.Fprintf(w, "failed:   %s (%v)\n", id, err)
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		if n == 0 {
			fmt.Fprintf(w, "skipped:  %s (no exportable items)\n", id)
			result.Skipped++
			continue
		}
		fmt.Fprintf(w, "exported: %s (%d files)\n", id, n)
		result.Exported++
	}

	fmt.Fprintf(w, "\nexport complete: %d exported, %d skipped, %d failed (total %d)\n",
		result.Exported, result.Skipped, result.Failed, result.Total())
	return result, nil
}
