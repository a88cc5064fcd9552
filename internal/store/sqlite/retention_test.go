package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/evo-hydra/seraph/internal/store"
	"github.com/evo-hydra/seraph/internal/types"
)

// TestPruneCascade is spec.md §8 scenario 5: a 200-day-old assessment with
// one mutation row and one feedback row gets fully pruned at a 90-day
// retention window, and a subsequent GetAssessment misses.
func TestPruneCascade(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seraph.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	old := time.Now().AddDate(0, 0, -200)

	report := &types.Report{
		ID:           "a1",
		RepoPath:     "/repo",
		FilesChanged: []string{"main.go"},
		OverallScore: 90,
		OverallGrade: types.GradeA,
		Mutations: []types.MutationResult{
			{ID: "m1", FilePath: "main.go", MutantID: "1", Operator: "unknown", Status: types.MutantKilled},
		},
		CreatedAt: old,
	}
	if err := s.SaveAssessment(ctx, report); err != nil {
		t.Fatalf("SaveAssessment: %v", err)
	}

	if err := s.SaveFeedback(ctx, &types.Feedback{
		ID: "f1", AssessmentID: "a1", Outcome: types.FeedbackAccepted, CreatedAt: old,
	}); err != nil {
		t.Fatalf("SaveFeedback: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE assessments SET created_at = ? WHERE id = ?`, old, "a1"); err != nil {
		t.Fatalf("backdate assessment: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE feedback SET created_at = ? WHERE id = ?`, old, "f1"); err != nil {
		t.Fatalf("backdate feedback: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE mutation_cache SET created_at = ? WHERE id = ?`, old, "m1"); err != nil {
		t.Fatalf("backdate mutation: %v", err)
	}

	counts, err := s.Prune(ctx, 90)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	want := store.PruneCounts{Feedback: 1, MutationCache: 1, Baselines: 0, Assessments: 1}
	if counts != want {
		t.Errorf("counts = %+v, want %+v", counts, want)
	}

	if _, err := s.GetAssessment(ctx, "a1"); err != store.ErrNotFound {
		t.Errorf("GetAssessment after prune = %v, want ErrNotFound", err)
	}
}
