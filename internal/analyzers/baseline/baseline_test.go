package baseline

import (
	"testing"

	"github.com/evo-hydra/seraph/internal/types"
)

// TestFlakyAndScore mirrors spec.md §8 scenario 4: t_a fails in all three
// runs (not flaky), t_b fails in 2 of 3 (flaky); score = 100 - 10*1 = 90.
func TestFlakyAndScore(t *testing.T) {
	result := aggregateFixture(map[string]int{"t_a": 3, "t_b": 2}, 3)
	if len(result.FlakyTests) != 1 || result.FlakyTests[0] != "t_b" {
		t.Fatalf("flaky tests = %v, want [t_b]", result.FlakyTests)
	}
	score := ComputeScore(result, 10)
	if score != 90 {
		t.Errorf("score = %v, want 90", score)
	}
}

// aggregateFixture replicates Run's aggregation logic given precomputed
// per-test failure counts, without shelling out to a real test binary.
func aggregateFixture(failuresByTest map[string]int, runCount int) types.BaselineResult {
	var flaky []string
	allFailing := map[string]bool{}
	var totalFailures int
	for id, count := range failuresByTest {
		allFailing[id] = true
		totalFailures += count
		if count > 0 && count < runCount {
			flaky = append(flaky, id)
		}
	}
	passRate := 1.0
	if len(allFailing) > 0 {
		avg := float64(totalFailures) / float64(len(allFailing))
		passRate = 1.0 - avg/float64(len(allFailing))
		if passRate < 0 {
			passRate = 0
		}
	}
	return types.BaselineResult{RunCount: runCount, FlakyTests: flaky, PassRate: round4(passRate)}
}
