package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagevec/internal/adapters/driven/artifacts/file"
	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

// --- Shared test doubles for the pipeline services ---

// fakeClock advances time only when Sleep is called.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) sleepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleeps)
}

// mockParser implements driven.DocumentParser.
type mockParser struct {
	mu sync.Mutex

	jobID     string
	submitErr error
	submitted []driven.SubmitRequest

	// statuses are returned in order; the last one repeats.
	statuses  []domain.JobStatus
	statusErr error
	polls     int

	output    *driven.ParseOutput
	resultErr error

	images   map[string][]byte
	imageErr map[string]error
}

func (m *mockParser) Submit(_ context.Context, req driven.SubmitRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, req)
	if m.submitErr != nil {
		return "", m.submitErr
	}
	return m.jobID, nil
}

func (m *mockParser) Status(_ context.Context, _ string) (domain.JobStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		return "", m.statusErr
	}
	idx := min(m.polls, len(m.statuses)-1)
	m.polls++
	return m.statuses[idx], nil
}

func (m *mockParser) Result(_ context.Context, _ string) (*driven.ParseOutput, error) {
	if m.resultErr != nil {
		return nil, m.resultErr
	}
	return m.output, nil
}

func (m *mockParser) Image(_ context.Context, _, name string) ([]byte, error) {
	if err, ok := m.imageErr[name]; ok {
		return nil, err
	}
	data, ok := m.images[name]
	if !ok {
		return nil, fmt.Errorf("image %s: status 404", name)
	}
	return data, nil
}

// mockEmbedder implements driven.MultimodalEmbedder. It returns one
// vector of the configured size per payload input.
type mockEmbedder struct {
	dims     int
	err      error
	calls    int
	lastBody []byte
	query    []float32
}

func (m *mockEmbedder) EmbedRaw(_ context.Context, payload []byte) ([]byte, error) {
	m.calls++
	m.lastBody = payload
	if m.err != nil {
		return nil, m.err
	}
	var req domain.EmbeddingRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	resp := domain.EmbeddingResponse{Object: "list", Model: req.Model}
	for i := range req.Inputs {
		vec := make([]float32, m.dims)
		for j := range vec {
			vec[j] = float32(i+1) / float32(j+1)
		}
		resp.Data = append(resp.Data, domain.EmbeddingData{Object: "embedding", Embedding: vec, Index: i})
	}
	return json.Marshal(resp)
}

func (m *mockEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.query, nil
}

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

// failingVectorStore wraps a store and fails chosen operations.
type failingVectorStore struct {
	driven.VectorStore
	rangeErr     error
	deleteErr    error
	upsertErr    error
	upsertCalls  int
	failUpsertAt int
}

func (f *failingVectorStore) Range(ctx context.Context, req domain.RangeRequest) (*domain.RangePage, error) {
	if f.rangeErr != nil {
		return nil, f.rangeErr
	}
	return f.VectorStore.Range(ctx, req)
}

func (f *failingVectorStore) Delete(ctx context.Context, ids []string) (int, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.VectorStore.Delete(ctx, ids)
}

func (f *failingVectorStore) Upsert(ctx context.Context, entries []domain.VectorEntry) error {
	f.upsertCalls++
	if f.upsertErr != nil && f.upsertCalls >= f.failUpsertAt {
		return f.upsertErr
	}
	return f.VectorStore.Upsert(ctx, entries)
}

var errNetwork = errors.New("connection reset")

func newArtifacts(t *testing.T) *file.Store {
	t.Helper()
	store, err := file.NewStore(domain.StorageConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	return store
}

// storedEntry scans store for the entry with the given id.
func storedEntry(t *testing.T, store driven.VectorStore, id string) (domain.VectorEntry, bool) {
	t.Helper()
	cursor := ""
	for {
		page, err := store.Range(context.Background(), domain.RangeRequest{Cursor: cursor, Limit: 100, IncludeMetadata: true})
		require.NoError(t, err)
		for _, e := range page.Vectors {
			if e.ID == id {
				return e, true
			}
		}
		if page.NextCursor == "" {
			return domain.VectorEntry{}, false
		}
		cursor = page.NextCursor
	}
}

func testParserConfig() domain.ParserConfig {
	cfg := domain.DefaultConfig().Parser
	cfg.CheckInterval = 10 * time.Second
	cfg.MaxWait = 600 * time.Second
	return cfg
}

// twoPageOutput is a document whose first page has text and an image and
// whose second page has text only.
func twoPageOutput() *driven.ParseOutput {
	return &driven.ParseOutput{Pages: []driven.ParsedPage{
		{Page: 1, Markdown: "  # Title\nIntro text  ", Images: []driven.ParsedImage{{Name: "img_p0_1.jpg"}}},
		{Page: 2, Markdown: "Second page"},
	}}
}

func twoPageImages() map[string][]byte {
	return map[string][]byte{"img_p0_1.jpg": []byte("\xff\xd8jpeg-bytes")}
}
