package driven

import (
	"context"

	"github.com/custodia-labs/pagevec/internal/core/domain"
)

// RunStore records orchestrated pipeline runs.
type RunStore interface {
	// Save stores or replaces a run record.
	Save(ctx context.Context, rec *domain.RunRecord) error

	// Get returns a run by id, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.RunRecord, error)

	// List returns the most recent runs first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// Close releases resources.
	Close() error
}
