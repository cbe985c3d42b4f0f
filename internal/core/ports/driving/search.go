package driving

import (
	"context"

	"github.com/custodia-labs/pagevec/internal/core/domain"
)

// QueryService retrieves indexed pages and answers questions over them.
type QueryService interface {
	// Search returns the topK pages most similar to query.
	Search(ctx context.Context, query string, topK int) ([]domain.QueryMatch, error)

	// Ask retrieves topK pages and synthesizes an answer from them.
	Ask(ctx context.Context, question string, topK int) (*domain.Answer, error)
}
