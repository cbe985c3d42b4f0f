package driving

import (
	"context"

	"github.com/custodia-labs/pagevec/internal/core/domain"
)

// RunHistory exposes recorded pipeline runs.
type RunHistory interface {
	// List returns the most recent runs first.
	List(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// Get returns one run by id.
	Get(ctx context.Context, id string) (*domain.RunRecord, error)
}
