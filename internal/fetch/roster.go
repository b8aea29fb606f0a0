// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pdiddy/profiledir/pkg/types"
)

// profileIDPattern extracts the upstream identifier from a public
// profile URL, e.g. "https://researchmap.jp/a_takeuch" → "a_takeuch".
var profileIDPattern = regexp.MustCompile(`researchmap\.jp/([^/?#]+)`)

// ProfileID returns the upstream identifier embedded in a profile URL,
// or "" when the URL does not carry one.
func ProfileID(url string) string {
	m := profileIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// ReadRoster parses the roster CSV. Each row lists avatar URL, Japanese
// name, English name, two organization slots, position, and the public
// profile URL, in that order. Rows that are too short or whose URL
// yields no identifier are skipped and reported on w; a bad row never
// aborts the roster.
func ReadRoster(path string, w io.Writer) ([]types.Researcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening roster %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var roster []types.Researcher
	line := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			fmt.Fprintf(w, "skipped roster line %d: %v\n", line, err)
			continue
		}
		if len(row) < 7 {
			fmt.Fprintf(w, "skipped roster line %d: %d columns, want 7\n", line, len(row))
			continue
		}

		url := strings.TrimSpace(row[6])
		id := ProfileID(url)
		if id == "" {
			fmt.Fprintf(w, "skipped roster line %d: no profile id in %q\n", line, url)
			continue
		}

		roster = append(roster, types.Researcher{
			ID:         id,
			AvatarURL:  strings.TrimSpace(row[0]),
			NameJA:     strings.TrimSpace(row[1]),
			NameEN:     strings.TrimSpace(row[2]),
			Org1:       strings.TrimSpace(row[3]),
			Org2:       strings.TrimSpace(row[4]),
			Position:   strings.TrimSpace(row[5]),
			ProfileURL: url,
		})
	}

	return roster, nil
}

// ReadIDFilter loads an optional newline-separated id list. Blank lines
// and #-comments are ignored. A nil map means no filtering.
func ReadIDFilter(path string) (map[string]bool, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading id list %s: %w", path, err)
	}

	ids := make(map[string]bool)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "\r", ""))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids[line] = true
	}
	return ids, nil
}
