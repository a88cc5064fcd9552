package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/evo-hydra/seraph/internal/store"
)

// Prune deletes rows older than retentionDays in dependency order: feedback,
// then mutation_cache, then baselines (keyed on their own created_at), then
// assessments, all inside one transaction, followed by a VACUUM if any rows
// were removed. Mirrors spec.md §4.8's retention-prune ordering and
// verdict/core/store.py's prune_older_than cascade.
func (s *Store) Prune(ctx context.Context, retentionDays int) (store.PruneCounts, error) {
	var counts store.PruneCounts
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return counts, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM feedback
		WHERE assessment_id IN (SELECT id FROM assessments WHERE created_at < ?)`, cutoff)
	if err != nil {
		return counts, fmt.Errorf("prune feedback: %w", err)
	}
	counts.Feedback = rowsAffectedInt(res)

	res, err = tx.ExecContext(ctx, `
		DELETE FROM mutation_cache
		WHERE assessment_id IN (SELECT id FROM assessments WHERE created_at < ?)`, cutoff)
	if err != nil {
		return counts, fmt.Errorf("prune mutation_cache: %w", err)
	}
	counts.MutationCache = rowsAffectedInt(res)

	res, err = tx.ExecContext(ctx, `DELETE FROM baselines WHERE created_at < ?`, cutoff)
	if err != nil {
		return counts, fmt.Errorf("prune baselines: %w", err)
	}
	counts.Baselines = rowsAffectedInt(res)

	res, err = tx.ExecContext(ctx, `DELETE FROM assessments WHERE created_at < ?`, cutoff)
	if err != nil {
		return counts, fmt.Errorf("prune assessments: %w", err)
	}
	counts.Assessments = rowsAffectedInt(res)

	if err := tx.Commit(); err != nil {
		return counts, err
	}

	total := counts.Feedback + counts.MutationCache + counts.Baselines + counts.Assessments
	if total > 0 {
		if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
			return counts, fmt.Errorf("vacuum: %w", err)
		}
	}

	return counts, nil
}

func rowsAffectedInt(res interface{ RowsAffected() (int64, error) }) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}
