// Package security runs up to three security scanners (gosec, semgrep,
// gitleaks), normalizes their findings, and post-filters syntactic false
// positives. Grounded exhaustively on seraph/core/security.py.
package security

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/evo-hydra/seraph/internal/types"
)

// Options configures the post-filter and per-scanner enablement.
type Options struct {
	SkipCodes    []string
	ExcludeGlobs []string
}

// Run invokes the enabled scanners over files and returns the filtered,
// normalized finding list.
func Run(ctx context.Context, repoPath string, files []string, sourceExts []string, timeout time.Duration, opts Options) []types.SecurityFinding {
	var srcFiles []string
	for _, f := range files {
		for _, ext := range sourceExts {
			if strings.HasSuffix(f, ext) {
				srcFiles = append(srcFiles, f)
				break
			}
		}
	}
	if len(srcFiles) == 0 {
		return nil
	}

	var findings []types.SecurityFinding
	findings = append(findings, runGosec(ctx, repoPath, srcFiles, timeout)...)
	findings = append(findings, runSemgrep(ctx, repoPath, srcFiles, timeout)...)

	secretFiles := filterExcluded(srcFiles, opts.ExcludeGlobs)
	findings = append(findings, runGitleaks(ctx, repoPath, secretFiles, timeout)...)

	return filterFindings(findings, opts.SkipCodes)
}

type gosecOutput struct {
	Issues []struct {
		RuleID     string `json:"rule_id"`
		Details    string `json:"details"`
		File       string `json:"file"`
		Line       string `json:"line"`
		Column     string `json:"column"`
		Severity   string `json:"severity"`
		Confidence string `json:"confidence"`
		CWE        struct {
			ID string `json:"ID"`
		} `json:"cwe"`
		Code string `json:"code"`
	} `json:"Issues"`
}

func runGosec(ctx context.Context, repoPath string, files []string, timeout time.Duration) []types.SecurityFinding {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string{"-fmt=json"}, files...)
	cmd := exec.CommandContext(runCtx, "gosec", args...)
	cmd.Dir = repoPath
	var out bytes.Buffer
	cmd.Stdout = &out
	_ = cmd.Run()

	if out.Len() == 0 {
		return nil
	}
	var parsed gosecOutput
	if err := json.Unmarshal(out.Bytes(), &parsed); err != nil {
		return nil
	}

	var findings []types.SecurityFinding
	for _, i := range parsed.Issues {
		toolCWE := ""
		if i.CWE.ID != "" {
			toolCWE = "CWE-" + i.CWE.ID
		}
		cwe := cweFor(toolCWE, i.RuleID)
		findings = append(findings, types.SecurityFinding{
			FilePath:   toRelative(i.File, repoPath),
			LineNumber: atoiOr(i.Line, 0),
			Column:     atoiOr(i.Column, 0),
			Code:       i.RuleID,
			Message:    i.Details,
			Severity:   gosecSeverity(i.Severity),
			Analyzer:   types.AnalyzerGosec,
			CWEID:      cwe,
			Confidence: i.Confidence,
			SourceLine: i.Code,
		})
	}
	return findings
}

type semgrepOutput struct {
	Results []struct {
		CheckID string `json:"check_id"`
		Path    string `json:"path"`
		Start   struct {
			Line int `json:"line"`
			Col  int `json:"col"`
		} `json:"start"`
		Extra struct {
			Message  string      `json:"message"`
			Severity string      `json:"severity"`
			Lines    string      `json:"lines"`
			Metadata struct {
				CWE json.RawMessage `json:"cwe"`
			} `json:"metadata"`
		} `json:"extra"`
	} `json:"results"`
}

func runSemgrep(ctx context.Context, repoPath string, files []string, timeout time.Duration) []types.SecurityFinding {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string{"--json", "--quiet"}, files...)
	cmd := exec.CommandContext(runCtx, "semgrep", args...)
	cmd.Dir = repoPath
	var out bytes.Buffer
	cmd.Stdout = &out
	_ = cmd.Run()

	if out.Len() == 0 {
		return nil
	}
	var parsed semgrepOutput
	if err := json.Unmarshal(out.Bytes(), &parsed); err != nil {
		return nil
	}

	var findings []types.SecurityFinding
	for _, r := range parsed.Results {
		findings = append(findings, types.SecurityFinding{
			FilePath:   toRelative(r.Path, repoPath),
			LineNumber: r.Start.Line,
			Column:     r.Start.Col,
			Code:       r.CheckID,
			Message:    r.Extra.Message,
			Severity:   semgrepSeverity(r.Extra.Severity),
			Analyzer:   types.AnalyzerSemgrep,
			CWEID:      extractSemgrepCWE(r.Extra.Metadata.CWE),
			SourceLine: r.Extra.Lines,
		})
	}
	return findings
}

// extractSemgrepCWE handles both the string and []string/dict CWE forms
// semgrep rules emit, per seraph/core/security.py's _extract_semgrep_cwe.
func extractSemgrepCWE(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var asList []string
	if err := json.Unmarshal(raw, &asList); err == nil && len(asList) > 0 {
		return asList[0]
	}
	return ""
}

type gitleaksFinding struct {
	RuleID      string `json:"RuleID"`
	File        string `json:"File"`
	StartLine   int    `json:"StartLine"`
	Description string `json:"Description"`
	Match       string `json:"Match"`
}

func runGitleaks(ctx context.Context, repoPath string, files []string, timeout time.Duration) []types.SecurityFinding {
	if len(files) == 0 {
		return nil
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"detect", "--no-git", "--report-format=json", "--report-path=-"}
	args = append(args, files...)
	cmd := exec.CommandContext(runCtx, "gitleaks", args...)
	cmd.Dir = repoPath
	var out bytes.Buffer
	cmd.Stdout = &out
	_ = cmd.Run()

	if out.Len() == 0 {
		return nil
	}
	var parsed []gitleaksFinding
	if err := json.Unmarshal(out.Bytes(), &parsed); err != nil {
		return nil
	}

	var findings []types.SecurityFinding
	for _, f := range parsed {
		findings = append(findings, types.SecurityFinding{
			FilePath:   toRelative(f.File, repoPath),
			LineNumber: f.StartLine,
			Code:       f.RuleID,
			Message:    f.Description,
			Severity:   types.SeverityHigh, // unknown secret types default to high, per spec.md §4.5
			Analyzer:   types.AnalyzerGitleaks,
			CWEID:      "CWE-798",
			SourceLine: f.Match,
		})
	}
	return findings
}

func gosecSeverity(s string) types.Severity {
	switch strings.ToUpper(s) {
	case "HIGH":
		return types.SeverityHigh
	case "MEDIUM":
		return types.SeverityMedium
	case "LOW":
		return types.SeverityLow
	default:
		return types.SeverityMedium
	}
}

func semgrepSeverity(s string) types.Severity {
	switch strings.ToUpper(s) {
	case "ERROR":
		return types.SeverityHigh
	case "WARNING":
		return types.SeverityMedium
	case "INFO":
		return types.SeverityInfo
	default:
		return types.SeverityMedium
	}
}

// False-positive heuristics, grounded on seraph/core/security.py's
// _CWE259_FP_RE / _RANDOM_BENIGN_FILES / _RANDOM_BENIGN_CONTEXT.
var (
	credentialFPRE = regexp.MustCompile(`(?i)(==|!=|\[.+\]|os\.(Getenv|LookupEnv)|==\s*""|==\s*nil|!=\s*""|!=\s*nil|assert|len\(|if\s)`)
	randomBenignFileRE = regexp.MustCompile(`(?i)(^|/)(demo|seed|test)`)
	randomBenignContextRE = regexp.MustCompile(`(?i)(jitter|retry|backoff|sleep)`)
)

func filterFindings(findings []types.SecurityFinding, skipCodes []string) []types.SecurityFinding {
	skip := make(map[string]bool, len(skipCodes))
	for _, c := range skipCodes {
		skip[c] = true
	}

	var kept []types.SecurityFinding
	for _, f := range findings {
		if skip[f.Code] {
			continue
		}
		if f.CWEID == "CWE-798" && credentialFPRE.MatchString(f.SourceLine) {
			continue
		}
		if f.CWEID == "CWE-330" {
			if randomBenignFileRE.MatchString(f.FilePath) || randomBenignContextRE.MatchString(f.SourceLine) {
				continue
			}
		}
		kept = append(kept, f)
	}
	return kept
}

func filterExcluded(files []string, globs []string) []string {
	if len(globs) == 0 {
		return files
	}
	var kept []string
	for _, f := range files {
		excluded := false
		for _, g := range globs {
			if matched, _ := filepath.Match(g, f); matched {
				excluded = true
				break
			}
			if strings.Contains(f, strings.TrimSuffix(strings.TrimPrefix(g, "**/"), "/")) && strings.HasSuffix(g, "/") {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, f)
		}
	}
	return kept
}

func toRelative(path, repoPath string) string {
	rel, err := filepath.Rel(repoPath, path)
	if err != nil {
		return path
	}
	return rel
}

func atoiOr(s string, def int) int {
	n := 0
	neg := false
	any := false
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
		any = true
	}
	if !any {
		return def
	}
	if neg {
		n = -n
	}
	return n
}

// severityWeights mirrors static.go's table; duplicated locally since the
// security score applies an additional CWE-tier multiplier per finding.
var severityWeights = map[types.Severity]float64{
	types.SeverityCritical: 10,
	types.SeverityHigh:     5,
	types.SeverityMedium:   2,
	types.SeverityLow:      1,
	types.SeverityInfo:     0,
}

// ComputeScore implements spec.md §4.7's security score: same shape as
// static, plus the CWE-tier multiplier applied per finding before summing.
func ComputeScore(findings []types.SecurityFinding, fileCount int, threshold float64) float64 {
	if fileCount == 0 {
		return 100.0
	}
	var weighted float64
	for _, f := range findings {
		weighted += severityWeights[f.Severity] * cweWeight(f.CWEID)
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
