// Package config loads seraph's layered configuration: built-in defaults,
// then <repo>/.seraph/config.toml, then environment variables prefixed
// SERAPH_. Environment wins. The result is constructed once per process
// invocation and treated as immutable thereafter, per spec.md §9.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// TimeoutsConfig holds per-stage external-tool timeouts.
type TimeoutsConfig struct {
	Baseline time.Duration
	Mutation time.Duration
	Static   time.Duration
	Security time.Duration
}

// ScoringConfig holds the numeric constants driving §4.7's score functions.
type ScoringConfig struct {
	SecurityEnabled bool
	SecurityWeight  float64

	MutationWeight     float64
	StaticWeight       float64
	BaselineWeight     float64
	SentinelRiskWeight float64
	CoChangeWeight     float64

	BaselineDeductionPerFlaky float64

	StaticSeverityThreshold float64

	SecuritySeverityThreshold float64

	RiskHotFileCap            float64
	RiskHotFileChurnDivisor   float64
	RiskDeductionPerPitfall   float64
	RiskDeductionPerMissingCC float64

	GradeThresholds []GradeThreshold
}

// GradeThreshold mirrors types.GradeThreshold without importing internal/types,
// keeping config dependency-free of the domain package; scoring.ToGradeThresholds
// converts it where types.GradeThreshold is needed.
type GradeThreshold struct {
	MinScore float64
	Grade    string
}

// PipelineConfig holds orchestrator-wide knobs.
type PipelineConfig struct {
	BaselineRuns      int
	MaxOutputChars    int
	DBDir             string
	DBName            string
	SourceExtensions  []string
	MutationTool      string
	TestCmd           string
}

// RetentionConfig holds pruning knobs.
type RetentionConfig struct {
	RetentionDays int
	AutoPrune     bool
}

// LoggingConfig holds logger construction knobs.
type LoggingConfig struct {
	Level string
	File  string
}

// SecurityConfig holds the security adapter's post-filter knobs.
type SecurityConfig struct {
	SkipCodes      []string
	ExcludeGlobs   []string
}

// Config is the fully-resolved, immutable configuration for one invocation.
type Config struct {
	Timeouts  TimeoutsConfig
	Scoring   ScoringConfig
	Pipeline  PipelineConfig
	Retention RetentionConfig
	Logging   LoggingConfig
	Security  SecurityConfig
}

// Source identifies where a resolved config value came from, mirroring
// BeadsLog's own ConfigSource enum (internal/config.ConfigSource) adapted to
// this project's three-layer model (no CLI-flag layer at the config level;
// flags are merged by cobra before Load is ever consulted).
type Source int

const (
	SourceDefault Source = iota
	SourceConfigFile
	SourceEnvVar
)

func (s Source) String() string {
	switch s {
	case SourceConfigFile:
		return "config file"
	case SourceEnvVar:
		return "environment"
	default:
		return "default"
	}
}

// Load resolves configuration for repoPath: defaults, then
// <repoPath>/.seraph/config.toml if present, then SERAPH_* environment
// variables. It returns a fresh, immutable *Config — never a shared
// singleton, so that concurrent invocations (e.g. the tool server handling
// back-to-back requests) never observe a mutation from another caller.
func Load(repoPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	setDefaults(v)

	configPath := filepath.Join(repoPath, ".seraph", "config.toml")
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix("SERAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return build(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timeouts.baseline", "120s")
	v.SetDefault("timeouts.mutation", "120s")
	v.SetDefault("timeouts.static", "60s")
	v.SetDefault("timeouts.security", "60s")

	v.SetDefault("scoring.security_enabled", false)
	v.SetDefault("scoring.security_weight", 0.20)
	v.SetDefault("scoring.mutation_weight", 0.30)
	v.SetDefault("scoring.static_weight", 0.20)
	v.SetDefault("scoring.baseline_weight", 0.15)
	v.SetDefault("scoring.sentinel_risk_weight", 0.20)
	v.SetDefault("scoring.co_change_weight", 0.15)
	v.SetDefault("scoring.baseline_deduction_per_flaky", 10.0)
	v.SetDefault("scoring.static_severity_threshold", 10.0)
	v.SetDefault("scoring.security_severity_threshold", 10.0)
	v.SetDefault("scoring.risk_hot_file_cap", 10.0)
	v.SetDefault("scoring.risk_hot_file_churn_divisor", 5.0)
	v.SetDefault("scoring.risk_deduction_per_pitfall", 5.0)
	v.SetDefault("scoring.risk_deduction_per_missing_co_change", 3.0)
	v.SetDefault("scoring.grade_a", 90.0)
	v.SetDefault("scoring.grade_b", 75.0)
	v.SetDefault("scoring.grade_c", 60.0)
	v.SetDefault("scoring.grade_d", 40.0)

	v.SetDefault("pipeline.baseline_runs", 3)
	v.SetDefault("pipeline.max_output_chars", 16000)
	v.SetDefault("pipeline.db_dir", ".seraph")
	v.SetDefault("pipeline.db_name", "seraph.db")
	v.SetDefault("pipeline.source_extensions", []string{".go"})
	v.SetDefault("pipeline.mutation_tool", "go-mutesting")
	v.SetDefault("pipeline.test_cmd", "go test -json ./...")

	v.SetDefault("retention.retention_days", 90)
	v.SetDefault("retention.auto_prune", false)

	v.SetDefault("logging.level", "WARNING")
	v.SetDefault("logging.file", "")

	v.SetDefault("security.skip_codes", []string{})
	v.SetDefault("security.exclude_globs", []string{"tests/", "**/migrations/"})
}

func build(v *viper.Viper) *Config {
	return &Config{
		Timeouts: TimeoutsConfig{
			Baseline: v.GetDuration("timeouts.baseline"),
			Mutation: v.GetDuration("timeouts.mutation"),
			Static:   v.GetDuration("timeouts.static"),
			Security: v.GetDuration("timeouts.security"),
		},
		Scoring: ScoringConfig{
			SecurityEnabled:           v.GetBool("scoring.security_enabled"),
			SecurityWeight:            v.GetFloat64("scoring.security_weight"),
			MutationWeight:            v.GetFloat64("scoring.mutation_weight"),
			StaticWeight:              v.GetFloat64("scoring.static_weight"),
			BaselineWeight:            v.GetFloat64("scoring.baseline_weight"),
			SentinelRiskWeight:        v.GetFloat64("scoring.sentinel_risk_weight"),
			CoChangeWeight:            v.GetFloat64("scoring.co_change_weight"),
			BaselineDeductionPerFlaky: v.GetFloat64("scoring.baseline_deduction_per_flaky"),
			StaticSeverityThreshold:   v.GetFloat64("scoring.static_severity_threshold"),
			SecuritySeverityThreshold: v.GetFloat64("scoring.security_severity_threshold"),
			RiskHotFileCap:            v.GetFloat64("scoring.risk_hot_file_cap"),
			RiskHotFileChurnDivisor:   v.GetFloat64("scoring.risk_hot_file_churn_divisor"),
			RiskDeductionPerPitfall:   v.GetFloat64("scoring.risk_deduction_per_pitfall"),
			RiskDeductionPerMissingCC: v.GetFloat64("scoring.risk_deduction_per_missing_co_change"),
			GradeThresholds: []GradeThreshold{
				{MinScore: v.GetFloat64("scoring.grade_a"), Grade: "A"},
				{MinScore: v.GetFloat64("scoring.grade_b"), Grade: "B"},
				{MinScore: v.GetFloat64("scoring.grade_c"), Grade: "C"},
				{MinScore: v.GetFloat64("scoring.grade_d"), Grade: "D"},
				{MinScore: 0, Grade: "F"},
			},
		},
		Pipeline: PipelineConfig{
			BaselineRuns:     v.GetInt("pipeline.baseline_runs"),
			MaxOutputChars:   v.GetInt("pipeline.max_output_chars"),
			DBDir:            v.GetString("pipeline.db_dir"),
			DBName:           v.GetString("pipeline.db_name"),
			SourceExtensions: v.GetStringSlice("pipeline.source_extensions"),
			MutationTool:     v.GetString("pipeline.mutation_tool"),
			TestCmd:          v.GetString("pipeline.test_cmd"),
		},
		Retention: RetentionConfig{
			RetentionDays: v.GetInt("retention.retention_days"),
			AutoPrune:     v.GetBool("retention.auto_prune"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("logging.level"),
			File:  v.GetString("logging.file"),
		},
		Security: SecurityConfig{
			SkipCodes:    v.GetStringSlice("security.skip_codes"),
			ExcludeGlobs: v.GetStringSlice("security.exclude_globs"),
		},
	}
}

// DBPath returns the resolved sqlite file path for repoPath under this config.
func (c *Config) DBPath(repoPath string) string {
	return filepath.Join(repoPath, c.Pipeline.DBDir, c.Pipeline.DBName)
}
