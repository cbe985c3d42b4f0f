// Package voyage provides a multimodal embedding adapter for the Voyage AI
// REST API.
package voyage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/custodia-labs/pagevec/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.MultimodalEmbedder = (*EmbeddingService)(nil)

// EmbeddingService posts multimodal embedding requests.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	limiter    *ratelimit.Limiter
}

// NewEmbeddingService creates a Voyage embedding service.
func NewEmbeddingService(cfg domain.EmbeddingConfig) (*EmbeddingService, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: embedding API key is required", domain.ErrInvalidInput)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = domain.DefaultEmbeddingBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = domain.DefaultEmbeddingModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultEmbeddingTimeout
	}

	dims := cfg.Dimensions
	if dims <= 0 {
		dims = domain.DefaultEmbeddingDims
	}

	return &EmbeddingService{
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.Token,
		model:      model,
		dimensions: dims,
		limiter:    ratelimit.New(cfg.RatePerSecond),
	}, nil
}

// EmbedRaw posts payload unchanged and returns the response body.
func (s *EmbeddingService) EmbedRaw(ctx context.Context, payload []byte) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	s.limiter.Observe(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.EmbeddingError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// EmbedQuery embeds a single text input with input_type "query".
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(domain.EmbeddingRequest{
		Inputs:     []domain.PageInput{{Content: []domain.ContentBlock{domain.TextBlock{Text: text}}}},
		Model:      s.model,
		Truncation: true,
		InputType:  "query",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	raw, err := s.EmbedRaw(ctx, body)
	if err != nil {
		return nil, err
	}

	var result domain.EmbeddingResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned for query", domain.ErrEmbedding)
	}

	return result.Data[0].Embedding, nil
}

// ModelName returns the model identifier.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Dimensions returns the configured embedding size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}
