// Package orchestrator runs the seven-stage assessment pipeline — diff,
// baseline, mutation, static, security, knowledge, score-and-persist —
// wiring together diffadapter, the four analyzers, the knowledge oracle,
// and scoring. Grounded on verdict/core/engine.py's VerdictEngine.assess
// stage sequence. Each stage helper returns its dimension plus an evaluated
// flag, and the analyzers degrade to empty results instead of returning
// errors; a panic inside an analyzer is not recovered.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/evo-hydra/seraph/internal/analyzers/baseline"
	"github.com/evo-hydra/seraph/internal/analyzers/mutation"
	"github.com/evo-hydra/seraph/internal/analyzers/security"
	"github.com/evo-hydra/seraph/internal/analyzers/static"
	"github.com/evo-hydra/seraph/internal/config"
	"github.com/evo-hydra/seraph/internal/diffadapter"
	"github.com/evo-hydra/seraph/internal/oracle"
	"github.com/evo-hydra/seraph/internal/scoring"
	"github.com/evo-hydra/seraph/internal/store"
	"github.com/evo-hydra/seraph/internal/types"
)

// Pipeline bundles the resolved config, logger, and store a Pipeline needs
// to run assessments against one repository.
type Pipeline struct {
	Config *config.Config
	Log    *slog.Logger
	Store  store.Store
}

// New constructs a Pipeline.
func New(cfg *config.Config, log *slog.Logger, st store.Store) *Pipeline {
	return &Pipeline{Config: cfg, Log: log, Store: st}
}

// Assess runs the full seven-stage pipeline against repoPath and persists
// the resulting report, including the empty-diff case (a deliberate
// divergence from the Python reference's _empty_report, which returns
// without persisting; spec.md §4.1 step 1 and §8 scenario 1 require the
// empty-diff report to be stored like any other).
func (p *Pipeline) Assess(ctx context.Context, repoPath string, before, after *string) (*types.Report, error) {
	diffResult := diffadapter.Parse(ctx, repoPath, before, after, p.Config.Timeouts.Static)
	changedFiles := diffResult.FilePaths()
	sourceFiles := diffResult.SourceFiles(p.Config.Pipeline.SourceExtensions)

	report := &types.Report{
		ID:           uuid.NewString(),
		RepoPath:     repoPath,
		RefBefore:    before,
		RefAfter:     after,
		FilesChanged: changedFiles,
		CreatedAt:    time.Now(),
	}

	// Stage 1: empty diff short-circuits the rest of the pipeline entirely
	// (spec.md §4.1 step 1, §8 scenario 1): a perfect-score report with
	// every dimension not-evaluated, persisted once, returned immediately.
	if len(changedFiles) == 0 {
		weights := scoring.Weights(p.Config.Scoring)
		thresholds := scoring.ToGradeThresholds(p.Config.Scoring.GradeThresholds)
		scored, overall, grade, gaps := scoring.Fuse(nil, weights, thresholds)
		report.Dimensions = scored
		report.OverallScore = overall
		report.OverallGrade = grade
		report.Gaps = gaps
		if err := p.Store.SaveAssessment(ctx, report); err != nil {
			return nil, fmt.Errorf("persist assessment: %w", err)
		}
		return report, nil
	}

	hasSourceFiles := len(sourceFiles) > 0

	var dims []scoring.Dimension

	// Stage: baseline (skippable, only if any source-language files changed).
	if hasSourceFiles {
		if d, ok := p.runBaseline(ctx, repoPath, report); ok {
			dims = append(dims, d)
		} else {
			dims = append(dims, scoring.Dimension{Name: types.DimensionBaseline})
		}
	} else {
		dims = append(dims, scoring.Dimension{Name: types.DimensionBaseline})
	}

	// Stage: mutation (skippable, only if any source-language files changed).
	if hasSourceFiles {
		if d, ok := p.runMutation(ctx, repoPath, sourceFiles, report); ok {
			dims = append(dims, d)
		} else {
			dims = append(dims, scoring.Dimension{Name: types.DimensionMutation})
		}
	} else {
		dims = append(dims, scoring.Dimension{Name: types.DimensionMutation})
	}

	// Stage: static.
	if d, ok := p.runStatic(ctx, repoPath, sourceFiles, report); ok {
		dims = append(dims, d)
	} else {
		dims = append(dims, scoring.Dimension{Name: types.DimensionStatic})
	}

	// Stage: security — attempted only when some source-language file
	// changed AND at least one scanner is enabled (spec.md §4.1 step 5).
	if hasSourceFiles && p.Config.Scoring.SecurityEnabled {
		if d, ok := p.runSecurity(ctx, repoPath, sourceFiles, report); ok {
			dims = append(dims, d)
		} else {
			dims = append(dims, scoring.Dimension{Name: types.DimensionSecurity})
		}
	} else {
		dims = append(dims, scoring.Dimension{Name: types.DimensionSecurity})
	}

	// Stage: knowledge (sentinel oracle).
	signals := p.runKnowledge(ctx, repoPath, changedFiles)
	report.Signals = signals
	report.SentinelWarnings = len(signals.PitfallMatches)

	riskDim := scoring.Dimension{
		Name:      types.DimensionSentinelRisk,
		RawScore:  scoring.SentinelRiskScore(signals, p.Config.Scoring),
		Evaluated: signals.Available,
		Details:   knowledgeDetails(signals),
	}
	if !signals.Available {
		riskDim.RawScore = 0
	}
	dims = append(dims, riskDim)

	coDim := scoring.Dimension{
		Name:      types.DimensionCoChange,
		RawScore:  scoring.CoChangeScore(signals, changedFiles),
		Evaluated: signals.Available,
		Details:   coChangeDetails(signals),
	}
	if !signals.Available {
		coDim.RawScore = 0
	}
	dims = append(dims, coDim)

	// Stage: score and persist.
	weights := scoring.Weights(p.Config.Scoring)
	thresholds := scoring.ToGradeThresholds(p.Config.Scoring.GradeThresholds)
	scored, overall, grade, gaps := scoring.Fuse(dims, weights, thresholds)

	report.Dimensions = scored
	report.OverallScore = overall
	report.OverallGrade = grade
	report.Gaps = gaps

	if err := p.Store.SaveAssessment(ctx, report); err != nil {
		return nil, fmt.Errorf("persist assessment: %w", err)
	}

	return report, nil
}

func (p *Pipeline) runBaseline(ctx context.Context, repoPath string, report *types.Report) (scoring.Dimension, bool) {
	result := baseline.Run(ctx, repoPath, p.Config.Pipeline.TestCmd, p.Config.Pipeline.BaselineRuns, p.Config.Timeouts.Baseline)
	report.Baseline = &result
	report.BaselineFlaky = len(result.FlakyTests)
	score := baseline.ComputeScore(result, p.Config.Scoring.BaselineDeductionPerFlaky)
	return scoring.Dimension{
		Name:      types.DimensionBaseline,
		RawScore:  score,
		Evaluated: true,
		Details:   fmt.Sprintf("%d flaky test(s), pass rate %.4f", len(result.FlakyTests), result.PassRate),
	}, true
}

func (p *Pipeline) runMutation(ctx context.Context, repoPath string, files []string, report *types.Report) (scoring.Dimension, bool) {
	result := mutation.Run(ctx, repoPath, p.Config.Pipeline.MutationTool, files, p.Config.Timeouts.Mutation)
	if !result.ToolAvailable {
		p.Log.Debug("mutation tool unavailable, dimension not evaluated", "tool", p.Config.Pipeline.MutationTool)
		return scoring.Dimension{}, false
	}
	report.Mutations = result.Results
	if len(result.Results) == 0 {
		// Tool ran but generated zero mutants: not-evaluated, not a
		// synthetic 100 (spec.md §4.1 boundary behavior).
		p.Log.Debug("mutation tool produced zero mutants, dimension not evaluated")
		return scoring.Dimension{}, false
	}
	score := mutation.ComputeScore(result.Results)
	report.MutationScore = score
	return scoring.Dimension{
		Name:      types.DimensionMutation,
		RawScore:  score,
		Evaluated: true,
		Details:   fmt.Sprintf("%d mutant(s) analyzed", len(result.Results)),
	}, true
}

func (p *Pipeline) runStatic(ctx context.Context, repoPath string, files []string, report *types.Report) (scoring.Dimension, bool) {
	evaluated := len(files) > 0
	findings := static.Run(ctx, repoPath, files, p.Config.Pipeline.SourceExtensions, p.Config.Timeouts.Static)
	report.StaticFindings = findings
	report.StaticIssues = len(findings)
	lintConfigured, typeConfigured := static.DetectConfig(repoPath)
	score := static.ComputeScore(findings, len(files), p.Config.Scoring.StaticSeverityThreshold, lintConfigured, typeConfigured)
	return scoring.Dimension{
		Name:      types.DimensionStatic,
		RawScore:  score,
		Evaluated: evaluated,
		Details:   fmt.Sprintf("%d finding(s)", len(findings)),
	}, evaluated
}

func (p *Pipeline) runSecurity(ctx context.Context, repoPath string, files []string, report *types.Report) (scoring.Dimension, bool) {
	evaluated := len(files) > 0
	opts := security.Options{SkipCodes: p.Config.Security.SkipCodes, ExcludeGlobs: p.Config.Security.ExcludeGlobs}
	findings := security.Run(ctx, repoPath, files, p.Config.Pipeline.SourceExtensions, p.Config.Timeouts.Security, opts)
	report.SecurityFindings = findings
	score := security.ComputeScore(findings, len(files), p.Config.Scoring.SecuritySeverityThreshold)
	return scoring.Dimension{
		Name:      types.DimensionSecurity,
		RawScore:  score,
		Evaluated: evaluated,
		Details:   fmt.Sprintf("%d finding(s)", len(findings)),
	}, evaluated
}

func (p *Pipeline) runKnowledge(ctx context.Context, repoPath string, changedFiles []string) types.KnowledgeSignals {
	h := oracle.Open(repoPath)
	defer h.Close()
	return h.Query(ctx, changedFiles)
}

func knowledgeDetails(s types.KnowledgeSignals) string {
	if !s.Available {
		return "Not evaluated"
	}
	return fmt.Sprintf("%d pitfall match(es), %d hot file(s)", len(s.PitfallMatches), len(s.HotFiles))
}

func coChangeDetails(s types.KnowledgeSignals) string {
	if !s.Available {
		return "Not evaluated"
	}
	return fmt.Sprintf("%d missing co-change(s)", len(s.MissingCoChanges))
}

// MutateOnly runs only the mutation-testing stage, for the tool server's
// mutate_ op, without touching the store.
func (p *Pipeline) MutateOnly(ctx context.Context, repoPath string, files []string) mutation.RunResult {
	return mutation.Run(ctx, repoPath, p.Config.Pipeline.MutationTool, files, p.Config.Timeouts.Mutation)
}

// DBPath is the resolved sqlite file path for repoPath under cfg, exposed so
// callers (cmd/seraph, toolserver) share one derivation.
func DBPath(cfg *config.Config, repoPath string) string {
	return cfg.DBPath(repoPath)
}
