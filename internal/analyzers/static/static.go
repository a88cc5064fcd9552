// Package static runs the lint (golangci-lint) and type-check (go vet)
// adapters, normalizing both into types.StaticFinding. Grounded on
// verdict/core/static.py's run_static_analysis/_run_ruff/_run_mypy.
package static

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/evo-hydra/seraph/internal/types"
)

// Run executes golangci-lint and go vet against files, returning their
// combined findings. Only files ending in one of sourceExts are considered.
func Run(ctx context.Context, repoPath string, files []string, sourceExts []string, timeout time.Duration) []types.StaticFinding {
	var abs []string
	for _, f := range files {
		for _, ext := range sourceExts {
			if strings.HasSuffix(f, ext) {
				abs = append(abs, filepath.Join(repoPath, f))
				break
			}
		}
	}
	if len(abs) == 0 {
		return nil
	}

	var findings []types.StaticFinding
	findings = append(findings, runGolangciLint(ctx, repoPath, abs, timeout)...)
	findings = append(findings, runGoVet(ctx, repoPath, abs, timeout)...)
	return findings
}

type golangciOutput struct {
	Issues []struct {
		FromLinter string `json:"FromLinter"`
		Text       string `json:"Text"`
		Pos        struct {
			Filename string `json:"Filename"`
			Line     int    `json:"Line"`
			Column   int    `json:"Column"`
		} `json:"Pos"`
	} `json:"Issues"`
}

func runGolangciLint(ctx context.Context, repoPath string, absFiles []string, timeout time.Duration) []types.StaticFinding {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string{"run", "--out-format", "json"}, absFiles...)
	cmd := exec.CommandContext(runCtx, "golangci-lint", args...)
	cmd.Dir = repoPath
	var out bytes.Buffer
	cmd.Stdout = &out
	// golangci-lint exits non-zero when it finds issues; ignore the error
	// and parse whatever JSON it produced, matching the Python reference's
	// tolerance of ruff's exit-code-1-on-findings behavior.
	_ = cmd.Run()

	if out.Len() == 0 {
		return nil
	}
	var parsed golangciOutput
	if err := json.Unmarshal(out.Bytes(), &parsed); err != nil {
		return nil
	}

	var findings []types.StaticFinding
	for _, issue := range parsed.Issues {
		findings = append(findings, types.StaticFinding{
			FilePath:   toRelative(issue.Pos.Filename, repoPath),
			LineNumber: issue.Pos.Line,
			Column:     issue.Pos.Column,
			Code:       issue.FromLinter,
			Message:    issue.Text,
			Severity:   lintSeverity(issue.FromLinter),
			Analyzer:   types.AnalyzerGolangciLint,
		})
	}
	return findings
}

func runGoVet(ctx context.Context, repoPath string, absFiles []string, timeout time.Duration) []types.StaticFinding {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string{"vet"}, absFiles...)
	cmd := exec.CommandContext(runCtx, "go", args...)
	cmd.Dir = repoPath
	var out bytes.Buffer
	cmd.Stderr = &out // go vet writes diagnostics to stderr
	_ = cmd.Run()

	var findings []types.StaticFinding
	for _, line := range strings.Split(out.String(), "\n") {
		if f, ok := parseVetLine(line, repoPath); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// parseVetLine parses "file:line:col: message", the colon-delimited shape
// spec.md §4.4 describes for the type-check adapter. go vet has no
// warning/note tiers, so every parsed finding is severity high.
func parseVetLine(line string, repoPath string) (types.StaticFinding, bool) {
	parts := strings.SplitN(line, ":", 4)
	if len(parts) < 4 {
		return types.StaticFinding{}, false
	}
	lineNo, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return types.StaticFinding{}, false
	}
	col, _ := strconv.Atoi(strings.TrimSpace(parts[2]))
	return types.StaticFinding{
		FilePath:   toRelative(strings.TrimSpace(parts[0]), repoPath),
		LineNumber: lineNo,
		Column:     col,
		Message:    strings.TrimSpace(parts[3]),
		Severity:   types.SeverityHigh,
		Analyzer:   types.AnalyzerGoVet,
	}, true
}

func toRelative(path, repoPath string) string {
	rel, err := filepath.Rel(repoPath, path)
	if err != nil {
		return path
	}
	return rel
}

// lintSeverity maps a golangci-lint linter name to a severity, generalizing
// _ruff_severity's rule-code-prefix scheme to linter-name vocabulary.
func lintSeverity(linter string) types.Severity {
	switch {
	case strings.HasPrefix(linter, "gosec"):
		return types.SeverityHigh
	case linter == "errcheck" || linter == "govet":
		return types.SeverityHigh
	case linter == "gofmt" || linter == "stylecheck":
		return types.SeverityLow
	default:
		return types.SeverityMedium
	}
}

// DetectConfig reports whether the repo has lint/type-check configuration
// present, per spec.md §4.4. No original_source grounding exists for this
// feature; it is designed fresh on BeadsLog's own directory-probe
// convention (internal/config.Initialize's os.Stat walk).
func DetectConfig(repoPath string) (lintConfigured, typeConfigured bool) {
	for _, name := range []string{".golangci.yml", ".golangci.yaml", ".golangci.toml"} {
		if _, err := os.Stat(filepath.Join(repoPath, name)); err == nil {
			lintConfigured = true
			break
		}
	}
	if _, err := os.Stat(filepath.Join(repoPath, "go.mod")); err == nil {
		typeConfigured = true
	}
	return lintConfigured, typeConfigured
}

// severityWeights mirrors the {critical:10, high:5, medium:2, low:1, info:0}
// table from spec.md §4.7.
var severityWeights = map[types.Severity]float64{
	types.SeverityCritical: 10,
	types.SeverityHigh:     5,
	types.SeverityMedium:   2,
	types.SeverityLow:      1,
	types.SeverityInfo:     0,
}

// ComputeScore implements spec.md §4.7's static score function over
// findings from configured tools only; fileCount==0 returns 100.
// lintConfigured/typeConfigured (from DetectConfig) exclude golangci-lint
// or go vet findings respectively from scoring when that tool's config is
// absent, per spec.md §4.4's closing sentence — the excluded findings are
// still persisted by the caller, just not scored.
func ComputeScore(findings []types.StaticFinding, fileCount int, threshold float64, lintConfigured, typeConfigured bool) float64 {
	if fileCount == 0 {
		return 100.0
	}
	var weighted float64
	for _, f := range findings {
		switch f.Analyzer {
		case types.AnalyzerGolangciLint:
			if !lintConfigured {
				continue
			}
		case types.AnalyzerGoVet:
			if !typeConfigured {
				continue
			}
		}
		weighted += severityWeights[f.Severity]
	}
	issuesPerFile := weighted / float64(fileCount)
	score := 100.0 - issuesPerFile*threshold
	if score < 0 {
		score = 0
	}
	return round1(score)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
