package scoring

import (
	"testing"

	"github.com/evo-hydra/seraph/internal/config"
	"github.com/evo-hydra/seraph/internal/types"
)

func defaultThresholds() []types.GradeThreshold {
	return types.DefaultGradeThresholds()
}

func defaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		SecurityEnabled:    false,
		SecurityWeight:     0.20,
		MutationWeight:     0.30,
		StaticWeight:       0.20,
		BaselineWeight:     0.15,
		SentinelRiskWeight: 0.20,
		CoChangeWeight:     0.15,
	}
}

// TestMixedGradeFusion is spec.md §8 scenario 3.
func TestMixedGradeFusion(t *testing.T) {
	weights := map[types.DimensionName]float64{
		types.DimensionMutation:     0.30,
		types.DimensionStatic:       0.20,
		types.DimensionBaseline:     0.15,
		types.DimensionSentinelRisk: 0.20,
		types.DimensionCoChange:     0.15,
		types.DimensionSecurity:     0,
	}
	dims := []Dimension{
		{Name: types.DimensionMutation, RawScore: 50, Evaluated: true},
		{Name: types.DimensionStatic, RawScore: 80, Evaluated: true},
		{Name: types.DimensionBaseline, RawScore: 100, Evaluated: true},
		{Name: types.DimensionSentinelRisk, RawScore: 70, Evaluated: true},
		{Name: types.DimensionCoChange, RawScore: 60, Evaluated: true},
	}
	_, overall, grade, gaps := Fuse(dims, weights, defaultThresholds())
	if overall != 69.0 {
		t.Errorf("overall = %v, want 69.0", overall)
	}
	if grade != types.GradeC {
		t.Errorf("grade = %v, want C", grade)
	}
	if len(gaps) < 2 {
		t.Errorf("gaps = %v, want at least 2", gaps)
	}
}

// TestPartialEvaluation is spec.md §8 scenario 2: baseline not evaluated,
// everything else scores 100, overall should be 100 and grade A.
func TestPartialEvaluation(t *testing.T) {
	weights := map[types.DimensionName]float64{
		types.DimensionMutation:     0.30,
		types.DimensionStatic:       0.20,
		types.DimensionBaseline:     0.15,
		types.DimensionSentinelRisk: 0.20,
		types.DimensionCoChange:     0.15,
		types.DimensionSecurity:     0,
	}
	dims := []Dimension{
		{Name: types.DimensionMutation, RawScore: 100, Evaluated: true},
		{Name: types.DimensionStatic, RawScore: 100, Evaluated: true},
		{Name: types.DimensionSentinelRisk, RawScore: 100, Evaluated: true},
		{Name: types.DimensionCoChange, RawScore: 100, Evaluated: true},
	}
	scored, overall, grade, gaps := Fuse(dims, weights, defaultThresholds())
	if overall != 100.0 || grade != types.GradeA {
		t.Errorf("overall=%v grade=%v, want 100/A", overall, grade)
	}
	if len(gaps) != 0 {
		t.Errorf("gaps = %v, want empty", gaps)
	}
	for _, d := range scored {
		if d.Name == types.DimensionBaseline && d.Evaluated {
			t.Errorf("baseline should not be evaluated")
		}
	}
}

func TestWeightsSecurityDisabledSumsToOne(t *testing.T) {
	cfg := defaultScoringConfig()
	w := Weights(cfg)
	var sum float64
	for name, v := range w {
		if name == types.DimensionSecurity {
			continue
		}
		sum += v
	}
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("weights sum = %v, want 1.0", sum)
	}
	if w[types.DimensionSecurity] != 0 {
		t.Errorf("security weight = %v, want 0 when disabled", w[types.DimensionSecurity])
	}
}

func TestWeightsSecurityEnabledSumsToOne(t *testing.T) {
	cfg := defaultScoringConfig()
	cfg.SecurityEnabled = true
	w := Weights(cfg)
	var sum float64
	for _, v := range w {
		sum += v
	}
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("weights sum = %v, want 1.0", sum)
	}
	if w[types.DimensionSecurity] != cfg.SecurityWeight {
		t.Errorf("security weight = %v, want %v", w[types.DimensionSecurity], cfg.SecurityWeight)
	}
}
