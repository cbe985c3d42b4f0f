package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
	"github.com/custodia-labs/pagevec/internal/logger"
)

// EmbeddingRequester sends a payload checkpoint to the embedding service
// and stores the raw response as the embeddings checkpoint.
type EmbeddingRequester struct {
	embedder   driven.MultimodalEmbedder
	artifacts  driven.ArtifactStore
	dimensions int
}

// NewEmbeddingRequester creates a requester. dimensions is the expected
// vector size; a mismatch only warns.
func NewEmbeddingRequester(
	embedder driven.MultimodalEmbedder,
	artifacts driven.ArtifactStore,
	dimensions int,
) *EmbeddingRequester {
	return &EmbeddingRequester{
		embedder:   embedder,
		artifacts:  artifacts,
		dimensions: dimensions,
	}
}

// Embed posts the payload for docName as a single batch.
func (r *EmbeddingRequester) Embed(ctx context.Context, docName string) (*domain.EmbedResult, error) {
	payload, err := r.artifacts.Read(driven.ArtifactPayload, docName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.MissingArtifactError{
				Path:     r.artifacts.Path(driven.ArtifactPayload, docName),
				Producer: domain.StageParse,
			}
		}
		return nil, fmt.Errorf("read payload: %w", err)
	}

	var req domain.EmbeddingRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: payload for %s: %w", domain.ErrInvalidPayload, docName, err)
	}
	logger.Info("Requesting %d embeddings with model %s", len(req.Inputs), req.Model)

	raw, err := r.embedder.EmbedRaw(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", docName, err)
	}

	var resp domain.EmbeddingResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: embedding response: %w", domain.ErrInvalidPayload, err)
	}

	outPath, err := r.artifacts.WriteJSON(driven.ArtifactEmbeddings, docName, json.RawMessage(raw))
	if err != nil {
		return nil, fmt.Errorf("write embeddings: %w", err)
	}

	dims := resp.Dimensions()
	if r.dimensions > 0 && dims != 0 && dims != r.dimensions {
		logger.Warn("Embedding dimensions %d differ from the expected %d", dims, r.dimensions)
	}
	if len(resp.Data) != len(req.Inputs) {
		logger.Warn("Received %d embeddings for %d inputs", len(resp.Data), len(req.Inputs))
	}

	logger.Info("Embeddings saved: %s (%d vectors, %d dimensions)", outPath, len(resp.Data), dims)
	return &domain.EmbedResult{
		DocName:         docName,
		OutputPath:      outPath,
		TotalEmbeddings: len(resp.Data),
		Dimensions:      dims,
	}, nil
}
