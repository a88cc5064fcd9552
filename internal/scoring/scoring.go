// Package scoring implements the per-dimension score functions, weight
// re-normalization fusion, grade mapping, and gap extraction of spec.md
// §4.7. Fusion is grounded on other_examples' agent-readyness/scorer.go
// computeComposite, since the Python reference (verdict/core/reporter.py)
// does not renormalize; the formulas for individual dimensions are grounded
// on reporter.py/bridge.py.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/evo-hydra/seraph/internal/config"
	"github.com/evo-hydra/seraph/internal/types"
)

// Weights resolves the six dimension weights for one assessment, applying
// spec.md §9 Open Question (b)'s resolution: Security counts toward the
// weight sum only when enabled, in which case the other five are rescaled
// proportionally so all six still sum to 1.0.
func Weights(cfg config.ScoringConfig) map[types.DimensionName]float64 {
	if !cfg.SecurityEnabled {
		return map[types.DimensionName]float64{
			types.DimensionMutation:     cfg.MutationWeight,
			types.DimensionStatic:       cfg.StaticWeight,
			types.DimensionBaseline:     cfg.BaselineWeight,
			types.DimensionSentinelRisk: cfg.SentinelRiskWeight,
			types.DimensionCoChange:     cfg.CoChangeWeight,
			types.DimensionSecurity:     0,
		}
	}

	nonSecuritySum := cfg.MutationWeight + cfg.StaticWeight + cfg.BaselineWeight + cfg.SentinelRiskWeight + cfg.CoChangeWeight
	scale := (1 - cfg.SecurityWeight) / nonSecuritySum
	return map[types.DimensionName]float64{
		types.DimensionMutation:     cfg.MutationWeight * scale,
		types.DimensionStatic:       cfg.StaticWeight * scale,
		types.DimensionBaseline:     cfg.BaselineWeight * scale,
		types.DimensionSentinelRisk: cfg.SentinelRiskWeight * scale,
		types.DimensionCoChange:     cfg.CoChangeWeight * scale,
		types.DimensionSecurity:     cfg.SecurityWeight,
	}
}

// SentinelRiskScore implements spec.md §4.7's risk formula:
// 100 - (Σ min(cap, churn/divisor) + n_pitfalls*D_p + n_missing*D_m), floor 0.
// Unavailable oracle scores 100.
func SentinelRiskScore(signals types.KnowledgeSignals, cfg config.ScoringConfig) float64 {
	if !signals.Available {
		return 100.0
	}
	var churnSum float64
	for _, hf := range signals.HotFiles {
		churnSum += math.Min(cfg.RiskHotFileCap, hf.ChurnScore/cfg.RiskHotFileChurnDivisor)
	}
	deduction := churnSum + float64(len(signals.PitfallMatches))*cfg.RiskDeductionPerPitfall + float64(len(signals.MissingCoChanges))*cfg.RiskDeductionPerMissingCC
	score := 100.0 - deduction
	if score < 0 {
		score = 0
	}
	return round1(score)
}

// CoChangeScore implements spec.md §4.7's co-change coverage formula.
// Unavailable or both-zero → 100.
func CoChangeScore(signals types.KnowledgeSignals, changedFiles []string) float64 {
	if !signals.Available {
		return 100.0
	}
	changed := len(changedFiles)
	missing := len(signals.MissingCoChanges)
	if changed+missing == 0 {
		return 100.0
	}
	return round1(float64(changed) / float64(changed+missing) * 100)
}

// Dimension bundles a computed raw score with its evaluated flag and detail
// string, ready for Fuse.
type Dimension struct {
	Name      types.DimensionName
	RawScore  float64
	Evaluated bool
	Details   string
}

// Fuse implements spec.md §4.7's fusion rule and §3's invariant: take the
// evaluated subset, renormalize over Σweight, grade the result, and extract
// gaps. Dimensions are emitted in the fixed canonical order.
func Fuse(dims []Dimension, weights map[types.DimensionName]float64, thresholds []types.GradeThreshold) ([]types.DimensionScore, float64, types.Grade, []string) {
	byName := make(map[types.DimensionName]Dimension, len(dims))
	for _, d := range dims {
		byName[d.Name] = d
	}

	var scored []types.DimensionScore
	var weightedSum, totalWeight float64

	for _, name := range types.CanonicalDimensionOrder {
		d, ok := byName[name]
		weight := weights[name]
		if !ok {
			d = Dimension{Name: name, Evaluated: false}
		}

		ds := types.DimensionScore{
			Name:      name,
			Weight:    weight,
			RawScore:  d.RawScore,
			Evaluated: d.Evaluated,
			Details:   d.Details,
		}
		if !d.Evaluated {
			ds.Details = "Not evaluated"
			ds.RawScore = 100
			ds.WeightedScore = 0
		} else {
			ds.WeightedScore = round1(d.RawScore * weight)
			weightedSum += d.RawScore * weight
			totalWeight += weight
		}
		ds.Grade = types.GradeFromScore(ds.RawScore, thresholds)
		scored = append(scored, ds)
	}

	overall := 100.0
	if totalWeight > 0 {
		overall = round1(weightedSum / totalWeight)
	}
	overallGrade := types.GradeFromScore(overall, thresholds)

	var gaps []string
	for _, d := range scored {
		if !d.Evaluated {
			continue
		}
		if d.Grade == types.GradeC || d.Grade == types.GradeD || d.Grade == types.GradeF {
			gaps = append(gaps, fmt.Sprintf("%s: %s (%s%%) — %s", d.Name, d.Grade, formatScore(d.RawScore), d.Details))
		}
	}

	return scored, overall, overallGrade, gaps
}

func formatScore(f float64) string {
	return fmt.Sprintf("%.1f", f)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// ToGradeThresholds converts config thresholds into types.GradeThreshold,
// sorted descending by MinScore as GradeFromScore requires.
func ToGradeThresholds(cfg []config.GradeThreshold) []types.GradeThreshold {
	out := make([]types.GradeThreshold, 0, len(cfg))
	for _, t := range cfg {
		out = append(out, types.GradeThreshold{MinScore: t.MinScore, Grade: types.Grade(t.Grade)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinScore > out[j].MinScore })
	return out
}
