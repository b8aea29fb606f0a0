// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"github.com/pdiddy/profiledir/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (string, string) {
	t.Helper()
	dataDir := t.TempDir()
	jsonDir := filepath.Join(dataDir, "json")
	if err := os.MkdirAll(jsonDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return dataDir, jsonDir
}

func writeProfileJSON(t *testing.T, jsonDir, id, content string) {
	t.Helper()
	path := filepath.Join(jsonDir, id+".json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func goodProfile(id, nameEN string) string {
	return `{
		"id": "` + id + `",
		"name_ja": "名前",
		"name_en": "` + nameEN + `",
		"org1": "歴博",
		"position": "教授",
		"profile_url": "https://researchmap.jp/` + id + `",
		"profile_data": {
			"published_papers": {"items":[
				{"paper_title":{"ja":"業績","en":"An Achievement"}},
				{"paper_title":{"en":"Another Achievement"}}
			]}
		}
	}`
}

func tableCount(t *testing.T, dbPath, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

func TestBuildCounts(t *testing.T) {
	dataDir, jsonDir := testSetup(t)
	writeProfileJSON(t, jsonDir, "alpha", goodProfile("alpha", "Alpha One"))
	writeProfileJSON(t, jsonDir, "beta", goodProfile("beta", "Beta Two"))

	summary, err := Build(context.Background(), types.IndexConfig{DataDir: dataDir}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Researchers != 2 || summary.Achievements != 4 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Total() != 2 {
		t.Errorf("Total() = %d, want 2", summary.Total())
	}
	if summary.HasFailures() {
		t.Error("HasFailures() = true on a clean build")
	}

	dbPath := filepath.Join(dataDir, "researchers.db")
	// One identity row per researcher, one content row per achievement.
	if n := tableCount(t, dbPath, "researchers_fts"); n != 2 {
		t.Errorf("identity rows = %d, want 2", n)
	}
	if n := tableCount(t, dbPath, "achievements_fts"); n != 4 {
		t.Errorf("content rows = %d, want 4", n)
	}
}

func TestBuildIsolatesBadRecords(t *testing.T) {
	dataDir, jsonDir := testSetup(t)
	writeProfileJSON(t, jsonDir, "good", goodProfile("good", "Good One"))
	writeProfileJSON(t, jsonDir, "broken", `{not json at all`)
	writeProfileJSON(t, jsonDir, "nameless", `{"id":"nameless","name_ja":"","name_en":"","profile_url":"x"}`)

	var out bytes.Buffer
	summary, err := Build(context.Background(), types.IndexConfig{DataDir: dataDir}, &out)
	if err != nil {
		t.Fatalf("bad records must not abort the build: %v", err)
	}

	if summary.Researchers != 1 {
		t.Errorf("researchers = %d, want 1", summary.Researchers)
	}
	if summary.Failed != 2 {
		t.Errorf("failed = %d, want 2", summary.Failed)
	}

	failed := strings.Join(summary.FailedIDs, ",")
	for _, id := range []string{"broken", "nameless"} {
		if !strings.Contains(failed, id) {
			t.Errorf("FailedIDs missing %s: %v", id, summary.FailedIDs)
		}
	}
	if !strings.Contains(out.String(), "failed") {
		t.Errorf("status output does not report failures: %q", out.String())
	}

	// The failed records left no rows behind.
	dbPath := filepath.Join(dataDir, "researchers.db")
	if n := tableCount(t, dbPath, "researchers"); n != 1 {
		t.Errorf("researcher rows = %d, want 1", n)
	}
}

func TestBuildRejectsConcurrentRebuild(t *testing.T) {
	dataDir, jsonDir := testSetup(t)
	writeProfileJSON(t, jsonDir, "solo", goodProfile("solo", "Solo One"))
	dbPath := filepath.Join(dataDir, "researchers.db")

	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("acquiring test lock: locked=%v err=%v", locked, err)
	}
	defer lock.Unlock()

	if _, err := Build(context.Background(), types.IndexConfig{DataDir: dataDir}, io.Discard); err == nil {
		t.Error("Build must fail while another rebuild holds the lock")
	}
}

func TestRebuildReplacesIndexWholesale(t *testing.T) {
	dataDir, jsonDir := testSetup(t)
	writeProfileJSON(t, jsonDir, "first", goodProfile("first", "First One"))

	cfg := types.IndexConfig{DataDir: dataDir}
	if _, err := Build(context.Background(), cfg, io.Discard); err != nil {
		t.Fatal(err)
	}

	// Drop the first researcher and add another; the rebuild must not
	// retain the removed record.
	if err := os.Remove(filepath.Join(jsonDir, "first.json")); err != nil {
		t.Fatal(err)
	}
	writeProfileJSON(t, jsonDir, "second", goodProfile("second", "Second One"))

	if _, err := Build(context.Background(), cfg, io.Discard); err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(dataDir, "researchers.db")
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var id string
	if err := db.QueryRow("SELECT id FROM researchers").Scan(&id); err != nil {
		t.Fatal(err)
	}
	if id != "second" {
		t.Errorf("surviving researcher = %q, want second", id)
	}
}

func TestBuildMissingDataDir(t *testing.T) {
	cfg := types.IndexConfig{DataDir: filepath.Join(t.TempDir(), "absent")}
	if _, err := Build(context.Background(), cfg, io.Discard); err == nil {
		t.Error("Build without a json directory should fail")
	}
}
