package driven

import (
	"context"

	"github.com/custodia-labs/pagevec/internal/core/domain"
)

// VectorStore is a vector index that has no delete-by-metadata primitive.
// Callers reconcile a document by scanning with Range, deleting matched ids
// and upserting the rebuilt entries.
type VectorStore interface {
	// Range returns one page of stored entries starting at req.Cursor.
	Range(ctx context.Context, req domain.RangeRequest) (*domain.RangePage, error)

	// Delete removes entries by id and returns how many were deleted.
	Delete(ctx context.Context, ids []string) (int, error)

	// Upsert inserts or replaces entries.
	Upsert(ctx context.Context, entries []domain.VectorEntry) error

	// Query returns the entries most similar to q.Vector, best first.
	Query(ctx context.Context, q domain.VectorQuery) ([]domain.QueryMatch, error)

	// Close releases resources.
	Close() error
}
