// Package unconfigured provides stand-in adapters for remote services whose
// credentials are missing. Every call fails with the configuration error,
// so commands that never touch the service still work.
package unconfigured

import (
	"context"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

var (
	_ driven.DocumentParser     = Parser{}
	_ driven.MultimodalEmbedder = Embedder{}
	_ driven.VectorStore        = VectorStore{}
)

// Parser fails every parsing call with Err.
type Parser struct{ Err error }

// Submit implements driven.DocumentParser.
func (p Parser) Submit(context.Context, driven.SubmitRequest) (string, error) { return "", p.Err }

// Status implements driven.DocumentParser.
func (p Parser) Status(context.Context, string) (domain.JobStatus, error) { return "", p.Err }

// Result implements driven.DocumentParser.
func (p Parser) Result(context.Context, string) (*driven.ParseOutput, error) { return nil, p.Err }

// Image implements driven.DocumentParser.
func (p Parser) Image(context.Context, string, string) ([]byte, error) { return nil, p.Err }

// Embedder fails every embedding call with Err.
type Embedder struct {
	Err   error
	Model string
}

// EmbedRaw implements driven.MultimodalEmbedder.
func (e Embedder) EmbedRaw(context.Context, []byte) ([]byte, error) { return nil, e.Err }

// EmbedQuery implements driven.MultimodalEmbedder.
func (e Embedder) EmbedQuery(context.Context, string) ([]float32, error) { return nil, e.Err }

// ModelName implements driven.MultimodalEmbedder.
func (e Embedder) ModelName() string { return e.Model }

// VectorStore fails every index call with Err.
type VectorStore struct{ Err error }

// Range implements driven.VectorStore.
func (v VectorStore) Range(context.Context, domain.RangeRequest) (*domain.RangePage, error) {
	return nil, v.Err
}

// Delete implements driven.VectorStore.
func (v VectorStore) Delete(context.Context, []string) (int, error) { return 0, v.Err }

// Upsert implements driven.VectorStore.
func (v VectorStore) Upsert(context.Context, []domain.VectorEntry) error { return v.Err }

// Query implements driven.VectorStore.
func (v VectorStore) Query(context.Context, domain.VectorQuery) ([]domain.QueryMatch, error) {
	return nil, v.Err
}

// Close implements driven.VectorStore.
func (v VectorStore) Close() error { return nil }
