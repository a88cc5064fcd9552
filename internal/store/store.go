// Package store defines the persistence interface for assessment reports,
// mirroring untoldecay/BeadsLog's internal/storage.Storage shape: an
// interface backed by an embedded SQL file. The interface exposes no
// transaction method; each write method manages its own transaction.
// Concrete implementation lives in internal/store/sqlite.
package store

import (
	"context"
	"errors"

	"github.com/evo-hydra/seraph/internal/types"
)

// ErrNotFound is returned when a lookup by id finds no row.
var ErrNotFound = errors.New("not found")

// PruneCounts is the per-table deletion count returned by Prune.
type PruneCounts struct {
	Feedback      int
	MutationCache int
	Baselines     int
	Assessments   int
}

// Store is the persistence contract for assessment reports and their child
// rows (spec.md §4.8).
type Store interface {
	// SaveAssessment inserts a report and its child rows (mutations,
	// optional baseline) as a single transaction.
	SaveAssessment(ctx context.Context, report *types.Report) error

	// GetAssessment fetches one assessment by id. Returns ErrNotFound if
	// absent.
	GetAssessment(ctx context.Context, id string) (*types.StoredAssessment, error)

	// ListAssessments returns stored assessments newest-first.
	ListAssessments(ctx context.Context, limit, offset int) ([]types.StoredAssessment, error)

	// SaveFeedback records a feedback row against an existing assessment.
	SaveFeedback(ctx context.Context, fb *types.Feedback) error

	// Prune deletes rows older than retentionDays in dependency order:
	// feedback -> mutation_cache -> baselines (own timestamp) ->
	// assessments, as a single transaction, followed by a space-reclaim
	// step if any rows were deleted.
	Prune(ctx context.Context, retentionDays int) (PruneCounts, error)

	// Close releases the underlying database handle.
	Close() error

	// Path returns the on-disk database file path.
	Path() string
}
