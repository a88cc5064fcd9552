package security

import (
	"testing"

	"github.com/evo-hydra/seraph/internal/types"
)

// TestFilterFindingsCredentialHeuristic is spec.md §8 scenario 6: a
// hardcoded-credential finding whose source line is a comparison is
// dropped; a literal assignment is kept.
func TestFilterFindingsCredentialHeuristic(t *testing.T) {
	findings := []types.SecurityFinding{
		{Code: "G101", CWEID: "CWE-798", SourceLine: `if password != "":`},
		{Code: "G101", CWEID: "CWE-798", SourceLine: `password = "hunter2"`},
	}
	kept := filterFindings(findings, nil)
	if len(kept) != 1 {
		t.Fatalf("got %d findings, want 1: %+v", len(kept), kept)
	}
	if kept[0].SourceLine != `password = "hunter2"` {
		t.Errorf("kept wrong finding: %+v", kept[0])
	}
}

func TestFilterFindingsWeakRandomBenignContext(t *testing.T) {
	findings := []types.SecurityFinding{
		{Code: "G404", CWEID: "CWE-330", FilePath: "internal/backoff/jitter.go", SourceLine: "sleep := jitter(base)"},
		{Code: "G404", CWEID: "CWE-330", FilePath: "internal/auth/token.go", SourceLine: "token := rand.Intn(1000000)"},
	}
	kept := filterFindings(findings, nil)
	if len(kept) != 1 || kept[0].FilePath != "internal/auth/token.go" {
		t.Fatalf("unexpected filter result: %+v", kept)
	}
}

func TestCWEWeightTiers(t *testing.T) {
	cases := map[string]float64{
		"CWE-703": 0.1,
		"CWE-79":  3,
		"CWE-78":  2,
		"CWE-999": 1,
	}
	for cwe, want := range cases {
		if got := cweWeight(cwe); got != want {
			t.Errorf("cweWeight(%q) = %v, want %v", cwe, got, want)
		}
	}
}
