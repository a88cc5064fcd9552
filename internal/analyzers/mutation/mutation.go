// Package mutation runs the mutation-testing adapter. Grounded on
// seraph/core/mutator.py's run_mutations/_mutate_single_file/
// _parse_mutmut_results, retargeted from mutmut to go-mutesting.
package mutation

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/evo-hydra/seraph/internal/types"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// RunResult wraps mutation output with tool-availability info, so that
// "tool not found" is distinguishable from "ran but produced nothing".
type RunResult struct {
	Results       []types.MutationResult
	ToolAvailable bool
}

// Run invokes the mutation tool once per source file that exists on disk,
// under a per-file timeout.
func Run(ctx context.Context, repoPath, tool string, files []string, perFileTimeout time.Duration) RunResult {
	var all []types.MutationResult
	toolAvailable := false

	for _, f := range files {
		full := filepath.Join(repoPath, f)
		if _, err := os.Stat(full); err != nil {
			continue
		}
		results, available := mutateSingleFile(ctx, repoPath, tool, f, perFileTimeout)
		all = append(all, results...)
		if available {
			toolAvailable = true
		}
	}
	return RunResult{Results: all, ToolAvailable: toolAvailable}
}

func mutateSingleFile(ctx context.Context, repoPath, tool, file string, timeout time.Duration) ([]types.MutationResult, bool) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, tool, "run", "--paths-to-mutate", file, "--no-progress")
	cmd.Dir = repoPath
	err := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return []types.MutationResult{{
			FilePath: file,
			MutantID: "timeout",
			Operator: "all",
			Status:   types.MutantTimeout,
		}}, true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return nil, false
	}

	return parseResults(repoPath, tool, file), true
}

func parseResults(repoPath, tool, file string) []types.MutationResult {
	cachePath := filepath.Join(repoPath, ".mutation-cache", "db.sqlite3")
	if _, err := os.Stat(cachePath); err == nil {
		if results := parseFromCache(cachePath, file); results != nil {
			return results
		}
	}
	return parseFromCommand(repoPath, tool, file)
}

// parseFromCache reads mutmut-equivalent mutant records from the on-disk
// result cache, preserving the real `operator` column.
func parseFromCache(cachePath, file string) []types.MutationResult {
	db, err := sql.Open("sqlite3", cachePath)
	if err != nil {
		return nil
	}
	defer db.Close()

	rows, err := db.Query(`SELECT id, operator, line_number, status FROM mutant WHERE source_file = ?`, file)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var results []types.MutationResult
	for rows.Next() {
		var id int64
		var operator, status string
		var lineNumber sql.NullInt64
		if err := rows.Scan(&id, &operator, &lineNumber, &status); err != nil {
			continue
		}
		var ln *int
		if lineNumber.Valid {
			v := int(lineNumber.Int64)
			ln = &v
		}
		results = append(results, types.MutationResult{
			FilePath:   file,
			MutantID:   strconv.FormatInt(id, 10),
			Operator:   operator,
			LineNumber: ln,
			Status:     mapStatus(status),
		})
	}
	return results
}

// parseFromCommand parses `<tool> results` text output. Unlike the cache
// path, this never has access to real operator metadata — every result is
// tagged "unknown" rather than guessed, resolving spec.md §9 Open Question
// (a) the way seraph/core/mutator.py's _parse_from_command does.
func parseFromCommand(repoPath, tool, file string) []types.MutationResult {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, tool, "results")
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	var results []types.MutationResult
	currentStatus := types.MutantSurvived

	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "Survived"):
			currentStatus = types.MutantSurvived
		case strings.HasPrefix(line, "Killed"):
			currentStatus = types.MutantKilled
		case strings.HasPrefix(line, "Timeout"):
			currentStatus = types.MutantTimeout
		case line != "" && line[0] >= '0' && line[0] <= '9':
			for _, tok := range strings.Split(line, ",") {
				tok = strings.TrimSpace(tok)
				if _, err := strconv.Atoi(tok); err == nil {
					results = append(results, types.MutationResult{
						FilePath: file,
						MutantID: tok,
						Operator: "unknown",
						Status:   currentStatus,
					})
				}
			}
		}
	}
	return results
}

func mapStatus(status string) types.MutantStatus {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "killed") || strings.Contains(s, "ok"):
		return types.MutantKilled
	case strings.Contains(s, "survived") || strings.Contains(s, "bad"):
		return types.MutantSurvived
	case strings.Contains(s, "timeout"):
		return types.MutantTimeout
	case strings.Contains(s, "skipped"):
		return types.MutantSkipped
	default:
		return types.MutantError
	}
}

// ComputeScore returns the mutation dimension's raw score: killed / total.
// Empty input scores 100.
func ComputeScore(results []types.MutationResult) float64 {
	if len(results) == 0 {
		return 100.0
	}
	killed := 0
	for _, r := range results {
		if r.Status == types.MutantKilled {
			killed++
		}
	}
	score := float64(killed) / float64(len(results)) * 100
	return round1(score)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
