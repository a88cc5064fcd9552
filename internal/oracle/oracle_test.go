package oracle

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// TestMissingCoChangesDedupesByPartner is spec.md §4.6: a partner path
// reachable from two different changed files via co_changes must be
// reported once, not once per source file (grounded on
// verdict/core/bridge.py's _get_missing_co_changes, whose seen_pairs set
// is keyed by partner alone).
func TestMissingCoChangesDedupesByPartner(t *testing.T) {
	dir := t.TempDir()
	sentinelDir := filepath.Join(dir, ".sentinel")
	if err := os.MkdirAll(sentinelDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	dbPath := filepath.Join(sentinelDir, "sentinel.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE co_changes (file_a TEXT, file_b TEXT, change_count INTEGER)`); err != nil {
		t.Fatalf("create co_changes: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE pitfalls (id TEXT, description TEXT, severity TEXT, how_to_prevent TEXT, file_paths TEXT, code_pattern TEXT)`); err != nil {
		t.Fatalf("create pitfalls: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE file_churn (file_path TEXT, churn_score REAL, change_count INTEGER, bug_fix_count INTEGER, revert_count INTEGER)`); err != nil {
		t.Fatalf("create file_churn: %v", err)
	}
	// Both changed files co-change with the same unmodified partner.
	if _, err := db.Exec(`INSERT INTO co_changes (file_a, file_b, change_count) VALUES (?, ?, ?), (?, ?, ?)`,
		"a.go", "shared.go", 5, "b.go", "shared.go", 7); err != nil {
		t.Fatalf("insert co_changes: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close setup db: %v", err)
	}

	h := Open(dir)
	defer h.Close()
	if !h.Available() {
		t.Fatal("handle not available")
	}

	signals := h.Query(context.Background(), []string{"a.go", "b.go"})
	if len(signals.MissingCoChanges) != 1 {
		t.Fatalf("missing co-changes = %v, want exactly one deduped partner", signals.MissingCoChanges)
	}
	if signals.MissingCoChanges[0].PartnerFile != "shared.go" {
		t.Errorf("partner = %q, want shared.go", signals.MissingCoChanges[0].PartnerFile)
	}
}
