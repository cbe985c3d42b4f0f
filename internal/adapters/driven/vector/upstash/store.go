// Package upstash implements driven.VectorStore over the Upstash Vector
// REST API.
package upstash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/pagevec/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

// Verify interface implementation at compile time.
var _ driven.VectorStore = (*Store)(nil)

const serviceName = "upstash"

// Store is an Upstash Vector index client.
type Store struct {
	baseURL   string
	token     string
	namespace string
	client    *http.Client
	limiter   *ratelimit.Limiter
}

// NewStore creates a client for the index at cfg.URL.
func NewStore(cfg domain.VectorConfig) (*Store, error) {
	if cfg.URL == "" || cfg.Token == "" {
		return nil, fmt.Errorf("%w: upstash URL and token are required", domain.ErrInvalidInput)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultVectorTimeout
	}

	return &Store{
		baseURL:   strings.TrimSuffix(cfg.URL, "/"),
		token:     cfg.Token,
		namespace: cfg.Namespace,
		client:    &http.Client{Timeout: timeout},
		limiter:   ratelimit.New(cfg.RatePerSecond),
	}, nil
}

// envelope is the wrapper around every Upstash response.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type wireVector struct {
	ID       string                 `json:"id"`
	Vector   []float32              `json:"vector,omitempty"`
	Metadata *domain.VectorMetadata `json:"metadata,omitempty"`
	Score    float64                `json:"score,omitempty"`
}

type rangeBody struct {
	Cursor          string `json:"cursor"`
	Limit           int    `json:"limit"`
	IncludeMetadata bool   `json:"includeMetadata"`
	IncludeVectors  bool   `json:"includeVectors"`
}

type rangeResult struct {
	NextCursor string       `json:"nextCursor"`
	Vectors    []wireVector `json:"vectors"`
}

type deleteResult struct {
	Deleted int `json:"deleted"`
}

type queryBody struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

// Range returns one page of the index scan. The first page uses cursor "0".
func (s *Store) Range(ctx context.Context, req domain.RangeRequest) (*domain.RangePage, error) {
	cursor := req.Cursor
	if cursor == "" {
		cursor = "0"
	}

	var result rangeResult
	err := s.call(ctx, "range", s.path("range", ""), rangeBody{
		Cursor:          cursor,
		Limit:           req.Limit,
		IncludeMetadata: req.IncludeMetadata,
		IncludeVectors:  req.IncludeVectors,
	}, &result)
	if err != nil {
		return nil, err
	}

	page := &domain.RangePage{
		Vectors: make([]domain.VectorEntry, 0, len(result.Vectors)),
	}
	// Upstash reports an exhausted scan with an empty or "0" cursor.
	if result.NextCursor != "0" {
		page.NextCursor = result.NextCursor
	}
	for _, v := range result.Vectors {
		page.Vectors = append(page.Vectors, v.entry())
	}
	return page, nil
}

// Delete removes the given ids.
func (s *Store) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var result deleteResult
	if err := s.call(ctx, "delete", s.path("delete", ""), ids, &result); err != nil {
		return 0, err
	}
	return result.Deleted, nil
}

// Upsert writes entries into the configured namespace.
func (s *Store) Upsert(ctx context.Context, entries []domain.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	body := make([]wireVector, len(entries))
	for i, e := range entries {
		meta := e.Metadata
		body[i] = wireVector{ID: e.ID, Vector: e.Vector, Metadata: &meta}
	}

	var ack string
	return s.call(ctx, "upsert", s.path("upsert", ""), body, &ack)
}

// Query runs a similarity search. q.Namespace overrides the configured one.
func (s *Store) Query(ctx context.Context, q domain.VectorQuery) ([]domain.QueryMatch, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	var result []wireVector
	err := s.call(ctx, "query", s.path("query", q.Namespace), queryBody{
		Vector:          q.Vector,
		TopK:            topK,
		IncludeMetadata: q.IncludeMetadata,
	}, &result)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.QueryMatch, 0, len(result))
	for _, v := range result {
		m := domain.QueryMatch{ID: v.ID, Score: v.Score}
		if v.Metadata != nil {
			m.Metadata = *v.Metadata
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (v wireVector) entry() domain.VectorEntry {
	e := domain.VectorEntry{ID: v.ID, Vector: v.Vector}
	if v.Metadata != nil {
		e.Metadata = *v.Metadata
	}
	return e
}

// path builds an endpoint URL, appending the namespace when one applies.
func (s *Store) path(op, namespace string) string {
	if namespace == "" {
		namespace = s.namespace
	}
	if namespace == "" {
		return s.baseURL + "/" + op
	}
	return s.baseURL + "/" + op + "/" + namespace
}

// call posts body to u and decodes the "result" field into out.
func (s *Store) call(ctx context.Context, op, u string, body, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s request: %w", op, err)
	}
	defer resp.Body.Close()
	s.limiter.Observe(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if decodeErr == nil && env.Error != "" {
			msg = env.Error
		}
		return &domain.RemoteError{Service: serviceName, Op: op, StatusCode: resp.StatusCode, Body: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s response: %w", op, decodeErr)
	}
	if env.Error != "" {
		return &domain.RemoteError{Service: serviceName, Op: op, StatusCode: resp.StatusCode, Body: env.Error}
	}

	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", op, err)
	}
	return nil
}
