// Package oracle is the knowledge-oracle adapter: it opens a sibling
// embedded database at <repo>/.sentinel/sentinel.db if present and answers
// pitfall-match, hot-file, and missing-co-change queries for a changed-file
// list. Grounded on verdict/core/bridge.py's SentinelBridge.
package oracle

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/evo-hydra/seraph/internal/types"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const maxPitfallFetch = 200

// Handle is a scoped resource: acquired via Open, released via Close on
// every exit path (the Go idiom for the Python try/finally bridge.close()).
type Handle struct {
	db        *sql.DB
	available bool
}

// Open attempts to open the sibling database. Any failure — including a
// missing file — yields an unavailable-but-valid Handle, never an error;
// the caller always defers Close().
func Open(repoPath string) *Handle {
	dbPath := filepath.Join(repoPath, ".sentinel", "sentinel.db")
	if _, err := os.Stat(dbPath); err != nil {
		return &Handle{available: false}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return &Handle{available: false}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return &Handle{available: false}
	}
	return &Handle{db: db, available: true}
}

// Close releases the underlying database handle, if any. Safe to call on
// an unavailable Handle.
func (h *Handle) Close() error {
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Available reports whether the oracle database was successfully opened.
func (h *Handle) Available() bool {
	return h.available
}

// Query answers the three oracle queries for the given changed-file list.
// An unavailable Handle returns a zero-value Signals with Available=false.
func (h *Handle) Query(ctx context.Context, changedFiles []string) types.KnowledgeSignals {
	if !h.available {
		return types.KnowledgeSignals{Available: false}
	}
	return types.KnowledgeSignals{
		Available:        true,
		PitfallMatches:   h.matchPitfalls(ctx, changedFiles),
		HotFiles:         h.hotFiles(ctx, changedFiles),
		MissingCoChanges: h.missingCoChanges(ctx, changedFiles),
	}
}

type pitfallRow struct {
	id           string
	description  string
	severity     string
	howToPrevent string
	filePaths    map[string]bool
	codePattern  string
}

// matchPitfalls implements spec.md §4.6's matching rule: for each recorded
// pitfall (bounded fetch), try the file-path-set equality fast path first;
// otherwise compile its code-pattern regex (invalid regex silently
// skipped) and search each changed file's contents, first hit wins.
func (h *Handle) matchPitfalls(ctx context.Context, changedFiles []string) []types.PitfallMatch {
	rows, err := h.db.QueryContext(ctx, `SELECT id, description, severity, how_to_prevent, file_paths, code_pattern FROM pitfalls LIMIT ?`, maxPitfallFetch)
	if err != nil {
		return nil
	}
	defer rows.Close()

	changedSet := make(map[string]bool, len(changedFiles))
	for _, f := range changedFiles {
		changedSet[f] = true
	}

	var matches []types.PitfallMatch
	for rows.Next() {
		var id, description, severity, howToPrevent, filePathsCSV, codePattern string
		if err := rows.Scan(&id, &description, &severity, &howToPrevent, &filePathsCSV, &codePattern); err != nil {
			continue
		}
		pitfallFiles := splitCSV(filePathsCSV)

		if matchedFile, ok := fastPathMatch(pitfallFiles, changedSet); ok {
			matches = append(matches, types.PitfallMatch{
				PitfallID: id, Description: description, Severity: severity,
				HowToPrevent: howToPrevent, MatchedFile: matchedFile, MatchType: types.MatchFilePath,
			})
			continue
		}

		if codePattern == "" {
			continue
		}
		re, err := regexp.Compile(codePattern)
		if err != nil {
			continue // invalid regex silently discarded, per spec.md §9
		}
		if matchedFile, ok := firstCodeMatch(re, changedFiles); ok {
			matches = append(matches, types.PitfallMatch{
				PitfallID: id, Description: description, Severity: severity,
				HowToPrevent: howToPrevent, MatchedFile: matchedFile, MatchType: types.MatchCodePattern,
			})
		}
	}
	return matches
}

func fastPathMatch(pitfallFiles []string, changedSet map[string]bool) (string, bool) {
	for _, pf := range pitfallFiles {
		if changedSet[pf] {
			return pf, true
		}
	}
	return "", false
}

func firstCodeMatch(re *regexp.Regexp, changedFiles []string) (string, bool) {
	for _, f := range changedFiles {
		content, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		if re.Match(content) {
			return f, true
		}
	}
	return "", false
}

func (h *Handle) hotFiles(ctx context.Context, changedFiles []string) []types.HotFileInfo {
	var hot []types.HotFileInfo
	for _, f := range changedFiles {
		row := h.db.QueryRowContext(ctx, `SELECT churn_score, change_count, bug_fix_count, revert_count FROM file_churn WHERE file_path = ?`, f)
		var info types.HotFileInfo
		info.FilePath = f
		if err := row.Scan(&info.ChurnScore, &info.ChangeCount, &info.BugFixCount, &info.RevertCount); err != nil {
			continue
		}
		hot = append(hot, info)
	}
	return hot
}

func (h *Handle) missingCoChanges(ctx context.Context, changedFiles []string) []types.MissingCoChange {
	changedSet := make(map[string]bool, len(changedFiles))
	for _, f := range changedFiles {
		changedSet[f] = true
	}

	seenPairs := map[string]bool{}
	var missing []types.MissingCoChange

	for _, f := range changedFiles {
		rows, err := h.db.QueryContext(ctx, `SELECT file_a, file_b, change_count FROM co_changes WHERE file_a = ? OR file_b = ?`, f, f)
		if err != nil {
			continue
		}
		for rows.Next() {
			var fileA, fileB string
			var changeCount int
			if err := rows.Scan(&fileA, &fileB, &changeCount); err != nil {
				continue
			}
			partner := fileB
			if fileA != f {
				partner = fileA
			}
			if changedSet[partner] {
				continue
			}
			if seenPairs[partner] {
				continue
			}
			seenPairs[partner] = true
			missing = append(missing, types.MissingCoChange{SourceFile: f, PartnerFile: partner, ChangeCount: changeCount})
		}
		rows.Close()
	}

	sort.Slice(missing, func(i, j int) bool {
		if missing[i].ChangeCount != missing[j].ChangeCount {
			return missing[i].ChangeCount > missing[j].ChangeCount
		}
		return missing[i].PartnerFile < missing[j].PartnerFile
	})
	return missing
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
