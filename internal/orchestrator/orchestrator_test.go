package orchestrator

import (
	"testing"

	"github.com/evo-hydra/seraph/internal/scoring"
	"github.com/evo-hydra/seraph/internal/types"
)

// TestKnowledgeDetailsUnavailable covers the "Not evaluated" detail string
// spec.md §3 requires whenever the sentinel oracle is absent.
func TestKnowledgeDetailsUnavailable(t *testing.T) {
	s := types.KnowledgeSignals{Available: false}
	if got := knowledgeDetails(s); got != "Not evaluated" {
		t.Errorf("knowledgeDetails = %q, want %q", got, "Not evaluated")
	}
	if got := coChangeDetails(s); got != "Not evaluated" {
		t.Errorf("coChangeDetails = %q, want %q", got, "Not evaluated")
	}
}

// TestEmptyDiffFusesToGradeA is spec.md §8 scenario 1: with no dimension
// evaluated at all (Fuse's zero-weight fallback), the report still grades a
// perfect A, exactly the shape Pipeline.Assess's empty-diff short-circuit
// produces by calling Fuse(nil, ...).
func TestEmptyDiffFusesToGradeA(t *testing.T) {
	weights := map[types.DimensionName]float64{
		types.DimensionMutation:     0.30,
		types.DimensionStatic:       0.20,
		types.DimensionBaseline:     0.15,
		types.DimensionSentinelRisk: 0.20,
		types.DimensionCoChange:     0.15,
		types.DimensionSecurity:     0,
	}
	scored, overall, grade, gaps := scoring.Fuse(nil, weights, types.DefaultGradeThresholds())
	if overall != 100.0 || grade != types.GradeA {
		t.Errorf("overall=%v grade=%v, want 100/A", overall, grade)
	}
	if len(gaps) != 0 {
		t.Errorf("gaps = %v, want empty", gaps)
	}
	for _, d := range scored {
		if d.Evaluated {
			t.Errorf("dimension %s evaluated=true, want all six not-evaluated on an empty diff", d.Name)
		}
	}
}
