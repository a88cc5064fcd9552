package static

import (
	"testing"

	"github.com/evo-hydra/seraph/internal/types"
)

// TestComputeScoreZeroFiles is spec.md §4.7's file_count==0 boundary.
func TestComputeScoreZeroFiles(t *testing.T) {
	if score := ComputeScore(nil, 0, 1.0, true, true); score != 100.0 {
		t.Errorf("score = %v, want 100", score)
	}
}

// TestComputeScoreExcludesUnconfiguredTool covers spec.md §4.4's closing
// sentence: a golangci-lint finding is excluded from scoring (but the
// go vet finding still counts) when lint config is absent.
func TestComputeScoreExcludesUnconfiguredTool(t *testing.T) {
	findings := []types.StaticFinding{
		{Analyzer: types.AnalyzerGolangciLint, Severity: types.SeverityCritical},
		{Analyzer: types.AnalyzerGoVet, Severity: types.SeverityHigh},
	}

	withBoth := ComputeScore(findings, 1, 1.0, true, true)
	withoutLint := ComputeScore(findings, 1, 1.0, false, true)

	if withoutLint <= withBoth {
		t.Errorf("score without lint config = %v, want higher than %v (critical finding excluded)", withoutLint, withBoth)
	}
	// Only the go vet finding (weight 5) should count: 100 - 5*1.0 = 95.
	if withoutLint != 95.0 {
		t.Errorf("score without lint config = %v, want 95", withoutLint)
	}
}

// TestComputeScoreExcludesUnconfiguredTypeCheck mirrors the previous test
// for the inverse case: go vet findings excluded, golangci-lint counted.
func TestComputeScoreExcludesUnconfiguredTypeCheck(t *testing.T) {
	findings := []types.StaticFinding{
		{Analyzer: types.AnalyzerGolangciLint, Severity: types.SeverityMedium},
		{Analyzer: types.AnalyzerGoVet, Severity: types.SeverityCritical},
	}
	// Only the golangci-lint finding (weight 2) should count: 100 - 2*1.0 = 98.
	if score := ComputeScore(findings, 1, 1.0, true, false); score != 98.0 {
		t.Errorf("score = %v, want 98", score)
	}
}
