package types

import "time"

// FileChange is one file-level record in a parsed diff.
type FileChange struct {
	Path        string
	IsNew       bool
	IsDeleted   bool
	AddedLines  []LineRange
	DeletedLines []LineRange
}

// LineRange is a (start, length) hunk span, 1-indexed start per unified diff
// convention.
type LineRange struct {
	Start  int
	Length int
}

// StaticFinding is a single lint/type-check finding.
type StaticFinding struct {
	FilePath   string
	LineNumber int
	Column     int
	Code       string
	Message    string
	Severity   Severity
	Analyzer   AnalyzerKind
}

// SecurityFinding is a single security-scanner finding.
type SecurityFinding struct {
	FilePath   string
	LineNumber int
	Column     int
	Code       string
	Message    string
	Severity   Severity
	Analyzer   AnalyzerKind
	CWEID      string
	Confidence string
	SourceLine string
}

// MutationResult is the outcome of one mutant at one source location.
type MutationResult struct {
	ID           string
	AssessmentID string
	FilePath     string
	MutantID     string
	Operator     string
	LineNumber   *int
	Status       MutantStatus
	CreatedAt    time.Time
}

// BaselineResult is the outcome of the test-stability probe.
type BaselineResult struct {
	ID        string
	RepoPath  string
	TestCmd   string
	RunCount  int
	FlakyTests []string
	PassRate  float64
	CreatedAt time.Time
}

// PitfallMatch is a recorded anti-pattern matched against a changed file.
type PitfallMatch struct {
	PitfallID     string
	Description   string
	Severity      string
	HowToPrevent  string
	MatchedFile   string
	MatchType     MatchType
}

// HotFileInfo is churn/bug-fix/revert history for a changed file.
type HotFileInfo struct {
	FilePath     string
	ChurnScore   float64
	ChangeCount  int
	BugFixCount  int
	RevertCount  int
}

// MissingCoChange is a historical co-change partner absent from the diff.
type MissingCoChange struct {
	SourceFile  string
	PartnerFile string
	ChangeCount int
}

// KnowledgeSignals is the full set of oracle query results for one diff.
type KnowledgeSignals struct {
	Available         bool
	PitfallMatches    []PitfallMatch
	HotFiles          []HotFileInfo
	MissingCoChanges  []MissingCoChange
}

// DimensionScore is one axis of the fused score.
type DimensionScore struct {
	Name          DimensionName
	RawScore      float64
	Weight        float64
	WeightedScore float64
	Grade         Grade
	Details       string
	Evaluated     bool
}

// Report is the complete multi-metric assessment output of one pipeline run.
type Report struct {
	ID         string
	RepoPath   string
	RefBefore  *string
	RefAfter   *string
	FilesChanged []string

	Dimensions   []DimensionScore
	OverallScore float64
	OverallGrade Grade

	MutationScore    float64
	StaticIssues     int
	SentinelWarnings int
	BaselineFlaky    int

	Gaps []string

	Mutations       []MutationResult
	StaticFindings  []StaticFinding
	SecurityFindings []SecurityFinding
	Baseline        *BaselineResult
	Signals         KnowledgeSignals

	CreatedAt time.Time
}

// Feedback is a human verdict attached to a past assessment.
type Feedback struct {
	ID           string
	AssessmentID string
	Outcome      FeedbackOutcome
	Context      string
	CreatedAt    time.Time
}

// StoredAssessment is the denormalized row shape read back from the store.
type StoredAssessment struct {
	ID               string
	RepoPath         string
	RefBefore        *string
	RefAfter         *string
	FilesChanged     []string
	MutationScore    *float64
	StaticIssues     *int
	SentinelWarnings *int
	BaselineFlaky    int
	Grade            string
	ReportJSON       string
	CreatedAt        time.Time
}
