// Package sqlite is the embedded-SQLite Store implementation. Grounded on
// untoldecay/BeadsLog's internal/storage/sqlite package shape (Storage
// interface impl, schema-as-string-constant, WAL+FK pragmas) and
// verdict/core/store.py's table shapes and transactional insert discipline.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/evo-hydra/seraph/internal/store"
	"github.com/evo-hydra/seraph/internal/types"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store is the sqlite-backed store.Store implementation.
type Store struct {
	db   *sql.DB
	path string
}

var _ store.Store = (*Store)(nil)

// Open creates the database directory if needed, opens the file with WAL
// and foreign-key pragmas, and runs any pending forward-only migrations
// under an advisory file lock (guards the migration critical section
// across concurrent seraph invocations against the same repo, the same
// role BeadsLog's own flock usage plays for its daemon).
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	lock := flock.New(dbPath + ".migrate.lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("acquire migration lock: %w", err)
	}
	defer lock.Unlock()

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply base schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

func (s *Store) Close() error { return s.db.Close() }
func (s *Store) Path() string { return s.path }

// SaveAssessment inserts a report and its child rows as a single
// transaction, per spec.md §4.8's insert discipline.
func (s *Store) SaveAssessment(ctx context.Context, report *types.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	filesJSON, err := json.Marshal(report.FilesChanged)
	if err != nil {
		return err
	}
	reportJSON, err := json.Marshal(toSerializable(report))
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO assessments(id, repo_path, ref_before, ref_after, files_changed,
			mutation_score, static_issues, sentinel_warnings, baseline_flaky, grade, report_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.RepoPath, report.RefBefore, report.RefAfter, string(filesJSON),
		report.MutationScore, report.StaticIssues, report.SentinelWarnings, report.BaselineFlaky,
		string(report.OverallGrade), string(reportJSON), report.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}

	for _, m := range report.Mutations {
		id := m.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO mutation_cache(id, assessment_id, file_path, mutant_id, operator, line_number, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, report.ID, m.FilePath, m.MutantID, m.Operator, m.LineNumber, string(m.Status), report.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert mutation: %w", err)
		}
	}

	if report.Baseline != nil {
		flakyJSON, err := json.Marshal(report.Baseline.FlakyTests)
		if err != nil {
			return err
		}
		id := report.Baseline.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO baselines(id, repo_path, test_cmd, run_count, flaky_tests, pass_rate, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, report.RepoPath, report.Baseline.TestCmd, report.Baseline.RunCount,
			string(flakyJSON), report.Baseline.PassRate, report.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert baseline: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetAssessment(ctx context.Context, id string) (*types.StoredAssessment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, repo_path, ref_before, ref_after, files_changed, mutation_score,
			static_issues, sentinel_warnings, baseline_flaky, grade, report_json, created_at
		FROM assessments WHERE id = ?`, id)
	return scanAssessment(row)
}

func (s *Store) ListAssessments(ctx context.Context, limit, offset int) ([]types.StoredAssessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repo_path, ref_before, ref_after, files_changed, mutation_score,
			static_issues, sentinel_warnings, baseline_flaky, grade, report_json, created_at
		FROM assessments ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.StoredAssessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanAssessment(row scannable) (*types.StoredAssessment, error) {
	var a types.StoredAssessment
	var filesJSON string
	err := row.Scan(&a.ID, &a.RepoPath, &a.RefBefore, &a.RefAfter, &filesJSON,
		&a.MutationScore, &a.StaticIssues, &a.SentinelWarnings, &a.BaselineFlaky,
		&a.Grade, &a.ReportJSON, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(filesJSON), &a.FilesChanged)
	return &a, nil
}

func (s *Store) SaveFeedback(ctx context.Context, fb *types.Feedback) error {
	id := fb.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback(id, assessment_id, outcome, context, created_at)
		VALUES (?, ?, ?, ?, ?)`, id, fb.AssessmentID, string(fb.Outcome), fb.Context, fb.CreatedAt)
	return err
}

// serializableReport is the JSON shape spec.md §6 names for report_json.
type serializableReport struct {
	ID               string                  `json:"id"`
	RepoPath         string                  `json:"repo_path"`
	RefBefore        *string                 `json:"ref_before"`
	RefAfter         *string                 `json:"ref_after"`
	FilesChanged     []string                `json:"files_changed"`
	OverallScore     float64                 `json:"overall_score"`
	OverallGrade     types.Grade             `json:"overall_grade"`
	Dimensions       []serializableDimension `json:"dimensions"`
	MutationScore    float64                 `json:"mutation_score"`
	StaticIssues     int                     `json:"static_issues"`
	SentinelWarnings int                     `json:"sentinel_warnings"`
	BaselineFlaky    int                     `json:"baseline_flaky"`
	Gaps             []string                `json:"gaps"`
	CreatedAt        string                  `json:"created_at"`
}

type serializableDimension struct {
	Name          types.DimensionName `json:"name"`
	RawScore      float64             `json:"raw_score"`
	Weight        float64             `json:"weight"`
	WeightedScore float64             `json:"weighted_score"`
	Grade         types.Grade         `json:"grade"`
	Details       string              `json:"details"`
	Evaluated     bool                `json:"evaluated"`
}

func toSerializable(r *types.Report) serializableReport {
	dims := make([]serializableDimension, 0, len(r.Dimensions))
	for _, d := range r.Dimensions {
		dims = append(dims, serializableDimension{
			Name: d.Name, RawScore: d.RawScore, Weight: d.Weight,
			WeightedScore: d.WeightedScore, Grade: d.Grade, Details: d.Details, Evaluated: d.Evaluated,
		})
	}
	gaps := r.Gaps
	if gaps == nil {
		gaps = []string{}
	}
	files := r.FilesChanged
	if files == nil {
		files = []string{}
	}
	return serializableReport{
		ID: r.ID, RepoPath: r.RepoPath, RefBefore: r.RefBefore, RefAfter: r.RefAfter,
		FilesChanged: files, OverallScore: r.OverallScore, OverallGrade: r.OverallGrade,
		Dimensions: dims, MutationScore: r.MutationScore, StaticIssues: r.StaticIssues,
		SentinelWarnings: r.SentinelWarnings, BaselineFlaky: r.BaselineFlaky, Gaps: gaps,
		CreatedAt: r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
