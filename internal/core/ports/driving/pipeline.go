package driving

import (
	"context"

	"github.com/custodia-labs/pagevec/internal/core/domain"
)

// Pipeline runs the parse, embed and index stages for one document.
type Pipeline interface {
	// Process runs every stage for pdfURL, stopping at the first failure.
	// It never returns an error; failures are reported in the result.
	// An empty docName derives one from the URL.
	Process(ctx context.Context, pdfURL, docName string) *domain.ProcessingResult

	// Parse runs the parse stage only and writes the payload checkpoint.
	Parse(ctx context.Context, pdfURL, docName string) (*domain.ParseResult, error)

	// Embed runs the embed stage from an existing payload checkpoint.
	Embed(ctx context.Context, docName string) (*domain.EmbedResult, error)

	// Index runs the index stage from existing checkpoints.
	Index(ctx context.Context, docName string) (*domain.SyncResult, error)

	// Resume runs the stages from 'from' onwards for an already parsed
	// document. Resuming from parse is rejected since it needs a URL.
	Resume(ctx context.Context, docName string, from domain.Stage) *domain.ProcessingResult
}

// BatchProcessor processes several independent documents concurrently.
type BatchProcessor interface {
	// ProcessAll processes every URL and returns results in input order.
	ProcessAll(ctx context.Context, urls []string) ([]*domain.ProcessingResult, error)
}
