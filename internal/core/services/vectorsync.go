package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
	"github.com/custodia-labs/pagevec/internal/logger"
)

// VectorSynchronizer reconciles a document's vectors in the store:
// every vector carrying the doc_source is deleted, then the vectors
// rebuilt from the checkpoints are upserted.
type VectorSynchronizer struct {
	store      driven.VectorStore
	artifacts  driven.ArtifactStore
	rangeLimit int
	batchSize  int
}

// NewVectorSynchronizer creates a synchronizer using the range limit and
// batch size from cfg.
func NewVectorSynchronizer(
	store driven.VectorStore,
	artifacts driven.ArtifactStore,
	cfg domain.VectorConfig,
) *VectorSynchronizer {
	rangeLimit := cfg.RangeLimit
	if rangeLimit <= 0 {
		rangeLimit = domain.DefaultRangeLimit
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = domain.DefaultVectorBatchSize
	}
	return &VectorSynchronizer{
		store:      store,
		artifacts:  artifacts,
		rangeLimit: rangeLimit,
		batchSize:  batchSize,
	}
}

// Sync indexes docSource from its payload and embeddings checkpoints.
// Missing checkpoints are reported as a result with Success=false and a
// nil error. Store failures are returned as errors wrapping
// domain.ErrVectorStore.
func (s *VectorSynchronizer) Sync(ctx context.Context, docSource string) (*domain.SyncResult, error) {
	res := &domain.SyncResult{
		DocSource:      docSource,
		PayloadPath:    s.artifacts.Path(driven.ArtifactPayload, docSource),
		EmbeddingsPath: s.artifacts.Path(driven.ArtifactEmbeddings, docSource),
	}

	if !s.artifacts.Exists(driven.ArtifactPayload, docSource) {
		res.Error = fmt.Sprintf("payload not found for %s: run the %s stage first", docSource, domain.StageParse)
		logger.Error("%s", res.Error)
		return res, nil
	}
	if !s.artifacts.Exists(driven.ArtifactEmbeddings, docSource) {
		res.Error = fmt.Sprintf("embeddings not found for %s: run the %s stage first", docSource, domain.StageEmbed)
		logger.Error("%s", res.Error)
		return res, nil
	}

	// Build before touching the index so a bad checkpoint leaves it intact.
	payload, emb, err := s.loadCheckpoints(docSource)
	if err != nil {
		return nil, err
	}

	vectors := BuildVectors(emb, payload, docSource, s.artifacts.ImagePath)
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w for %s", domain.ErrNoVectors, docSource)
	}

	existing, err := s.FindExisting(ctx, docSource)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		res.Deleted, err = s.DeleteExisting(ctx, existing)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("Upserting %d vectors", len(vectors))
	for start := 0; start < len(vectors); start += s.batchSize {
		end := min(start+s.batchSize, len(vectors))
		if err := s.store.Upsert(ctx, vectors[start:end]); err != nil {
			return nil, fmt.Errorf("%w: upsert batch %d-%d: %w", domain.ErrVectorStore, start, end, err)
		}
		res.TotalVectors += end - start
	}

	res.Success = true
	logger.Info("Indexed %d vectors for %s", res.TotalVectors, docSource)
	return res, nil
}

// FindExisting scans the whole index and returns the ids of every
// vector whose doc_source metadata equals docSource.
func (s *VectorSynchronizer) FindExisting(ctx context.Context, docSource string) ([]string, error) {
	var ids []string
	cursor := ""
	for {
		page, err := s.store.Range(ctx, domain.RangeRequest{
			Cursor:          cursor,
			Limit:           s.rangeLimit,
			IncludeMetadata: true,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: range from cursor %q: %w", domain.ErrVectorStore, cursor, err)
		}
		for _, v := range page.Vectors {
			if v.Metadata.DocSource == docSource {
				ids = append(ids, v.ID)
			}
		}
		if page.NextCursor == "" || page.NextCursor == cursor {
			break
		}
		cursor = page.NextCursor
	}

	if len(ids) > 0 {
		logger.Info("Found %d existing vectors for %s", len(ids), docSource)
	} else {
		logger.Debug("No existing vectors for %s", docSource)
	}
	return ids, nil
}

// DeleteExisting deletes ids in batches. The first failing batch aborts
// the delete; the count deleted so far is returned with the error.
func (s *VectorSynchronizer) DeleteExisting(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for start := 0; start < len(ids); start += s.batchSize {
		end := min(start+s.batchSize, len(ids))
		n, err := s.store.Delete(ctx, ids[start:end])
		if err != nil {
			return deleted, fmt.Errorf("%w: delete batch %d-%d: %w", domain.ErrVectorStore, start, end, err)
		}
		deleted += n
	}
	logger.Info("Deleted %d vectors", deleted)
	return deleted, nil
}

func (s *VectorSynchronizer) loadCheckpoints(docSource string) (*domain.EmbeddingRequest, *domain.EmbeddingResponse, error) {
	rawPayload, err := s.artifacts.Read(driven.ArtifactPayload, docSource)
	if err != nil {
		return nil, nil, fmt.Errorf("read payload: %w", err)
	}
	var payload domain.EmbeddingRequest
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return nil, nil, fmt.Errorf("%w: payload for %s: %w", domain.ErrInvalidPayload, docSource, err)
	}

	rawEmb, err := s.artifacts.Read(driven.ArtifactEmbeddings, docSource)
	if err != nil {
		return nil, nil, fmt.Errorf("read embeddings: %w", err)
	}
	var emb domain.EmbeddingResponse
	if err := json.Unmarshal(rawEmb, &emb); err != nil {
		return nil, nil, fmt.Errorf("%w: embeddings for %s: %w", domain.ErrInvalidPayload, docSource, err)
	}
	return &payload, &emb, nil
}

// BuildVectors zips embeddings with payload inputs by position. Entry i
// gets id "{docSource}_{i}" and page_number i+1. A page with an image
// references "{docSource}_page_{i+1}.jpg"; this assumes no page was
// dropped from the payload, so references drift after an empty page.
// imagePath resolves a filename to its local path and may be nil.
func BuildVectors(
	emb *domain.EmbeddingResponse,
	payload *domain.EmbeddingRequest,
	docSource string,
	imagePath func(string) string,
) []domain.VectorEntry {
	vectors := make([]domain.VectorEntry, 0, len(emb.Data))
	for i, item := range emb.Data {
		meta := domain.VectorMetadata{
			DocSource:  docSource,
			PageNumber: i + 1,
		}
		if i < len(payload.Inputs) {
			input := payload.Inputs[i]
			meta.Text = input.Text()
			if input.HasImage() {
				name := domain.PageImageName(docSource, i+1, defaultImageExt)
				meta.ImageIsReference = true
				meta.ImageReference = name
				if imagePath != nil {
					meta.ImagePath = imagePath(name)
				}
			}
		}
		vectors = append(vectors, domain.VectorEntry{
			ID:       domain.VectorID(docSource, i),
			Vector:   item.Embedding,
			Metadata: meta,
		})
	}
	return vectors
}
