// Package types defines the value types shared across the assessment
// pipeline: diffs, findings, mutation/baseline results, knowledge signals,
// dimension scores, and the assembled report.
package types

// Grade is a letter grade assigned to a score under configured thresholds.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// GradeThreshold maps a minimum score to the grade it earns; threshold lists
// are kept in descending order of MinScore. The default values match spec.md §3.
type GradeThreshold struct {
	MinScore float64
	Grade    Grade
}

// DefaultGradeThresholds is the built-in A/B/C/D/F threshold ladder.
func DefaultGradeThresholds() []GradeThreshold {
	return []GradeThreshold{
		{MinScore: 90, Grade: GradeA},
		{MinScore: 75, Grade: GradeB},
		{MinScore: 60, Grade: GradeC},
		{MinScore: 40, Grade: GradeD},
		{MinScore: 0, Grade: GradeF},
	}
}

// GradeFromScore applies thresholds (must be sorted descending by MinScore)
// to a score, returning the first threshold the score meets or exceeds.
func GradeFromScore(score float64, thresholds []GradeThreshold) Grade {
	for _, t := range thresholds {
		if score >= t.MinScore {
			return t.Grade
		}
	}
	return GradeF
}

// Severity is a finding's severity level.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// AnalyzerKind tags which external tool produced a finding.
type AnalyzerKind string

const (
	AnalyzerGolangciLint AnalyzerKind = "golangci-lint"
	AnalyzerGoVet        AnalyzerKind = "go-vet"
	AnalyzerGosec        AnalyzerKind = "gosec"
	AnalyzerSemgrep      AnalyzerKind = "semgrep"
	AnalyzerGitleaks     AnalyzerKind = "gitleaks"
)

// MutantStatus is the outcome of a single mutation test.
type MutantStatus string

const (
	MutantKilled   MutantStatus = "killed"
	MutantSurvived MutantStatus = "survived"
	MutantTimeout  MutantStatus = "timeout"
	MutantError    MutantStatus = "error"
	MutantSkipped  MutantStatus = "skipped"
)

// FeedbackOutcome is the human verdict on a past assessment.
type FeedbackOutcome string

const (
	FeedbackAccepted FeedbackOutcome = "accepted"
	FeedbackRejected FeedbackOutcome = "rejected"
	FeedbackModified FeedbackOutcome = "modified"
)

// ParseFeedbackOutcome validates a CLI/server-supplied outcome string.
func ParseFeedbackOutcome(s string) (FeedbackOutcome, bool) {
	switch FeedbackOutcome(s) {
	case FeedbackAccepted, FeedbackRejected, FeedbackModified:
		return FeedbackOutcome(s), true
	default:
		return "", false
	}
}

// MatchType distinguishes how a pitfall was matched against a changed file.
type MatchType string

const (
	MatchFilePath    MatchType = "file_path"
	MatchCodePattern MatchType = "code_pattern"
)

// DimensionName identifies one of the six fixed scoring axes, in the
// canonical order spec.md §5 requires.
type DimensionName string

const (
	DimensionMutation     DimensionName = "Mutation"
	DimensionStatic       DimensionName = "Static"
	DimensionBaseline     DimensionName = "Baseline"
	DimensionSentinelRisk DimensionName = "Sentinel Risk"
	DimensionCoChange     DimensionName = "Co-change"
	DimensionSecurity     DimensionName = "Security"
)

// CanonicalDimensionOrder is the fixed report ordering from spec.md §5.
var CanonicalDimensionOrder = []DimensionName{
	DimensionMutation,
	DimensionStatic,
	DimensionBaseline,
	DimensionSentinelRisk,
	DimensionCoChange,
	DimensionSecurity,
}
