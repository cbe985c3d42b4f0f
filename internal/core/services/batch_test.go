package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagevec/internal/core/domain"
)

// batchMockPipeline records concurrent Process calls.
type batchMockPipeline struct {
	mu        sync.Mutex
	active    map[string]int
	maxActive int
	overlap   bool
	processed []string
}

func (m *batchMockPipeline) Process(_ context.Context, pdfURL, _ string) *domain.ProcessingResult {
	name := domain.DeriveDocName(pdfURL)

	m.mu.Lock()
	m.active[name]++
	if m.active[name] > 1 {
		m.overlap = true
	}
	total := 0
	for _, n := range m.active {
		total += n
	}
	m.maxActive = max(m.maxActive, total)
	m.processed = append(m.processed, pdfURL)
	m.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	m.mu.Lock()
	m.active[name]--
	m.mu.Unlock()

	return &domain.ProcessingResult{Success: true, PDFURL: pdfURL, DocName: name}
}

func (m *batchMockPipeline) Parse(context.Context, string, string) (*domain.ParseResult, error) {
	return nil, nil
}

func (m *batchMockPipeline) Embed(context.Context, string) (*domain.EmbedResult, error) {
	return nil, nil
}

func (m *batchMockPipeline) Index(context.Context, string) (*domain.SyncResult, error) {
	return nil, nil
}

func (m *batchMockPipeline) Resume(context.Context, string, domain.Stage) *domain.ProcessingResult {
	return nil
}

func TestPlanBatches(t *testing.T) {
	urls := []string{
		"https://a.com/one.pdf",
		"https://b.com/one.pdf",
		"https://a.com/two.pdf",
		"https://a.com/three.pdf",
		"https://a.com/four.pdf",
	}

	batches := PlanBatches(urls, 3)

	assert.Equal(t, [][]int{{0, 2, 3}, {1, 4}}, batches)
}

func TestPlanBatches_SameNameSerialized(t *testing.T) {
	urls := []string{"https://a/x.pdf", "https://b/x.pdf", "https://c/x.pdf"}

	batches := PlanBatches(urls, 3)

	assert.Equal(t, [][]int{{0}, {1}, {2}}, batches)
}

func TestPlanBatches_Empty(t *testing.T) {
	assert.Empty(t, PlanBatches(nil, 3))
}

func TestBatchRunner_ProcessAll(t *testing.T) {
	pipeline := &batchMockPipeline{active: make(map[string]int)}
	clock := newFakeClock()
	runner := NewBatchRunner(pipeline, domain.BatchConfig{Size: 2, Pause: time.Second}, clock)
	urls := []string{
		"https://a.com/one.pdf",
		"https://a.com/two.pdf",
		"https://b.com/one.pdf",
		"https://a.com/three.pdf",
		"https://a.com/four.pdf",
	}

	results, err := runner.ProcessAll(context.Background(), urls)

	require.NoError(t, err)
	require.Len(t, results, len(urls))
	for i, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, urls[i], r.PDFURL)
	}
	assert.False(t, pipeline.overlap, "same doc name ran concurrently")
	assert.LessOrEqual(t, pipeline.maxActive, 2)
	// Batches {0,1} {2,3} {4}: a pause between each pair.
	assert.Equal(t, 2, clock.sleepCount())
}

func TestBatchRunner_CancelledBetweenBatches(t *testing.T) {
	pipeline := &batchMockPipeline{active: make(map[string]int)}
	runner := NewBatchRunner(pipeline, domain.BatchConfig{Size: 1, Pause: time.Second}, newFakeClock())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := runner.ProcessAll(ctx, []string{"https://a/1.pdf", "https://a/2.pdf"})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 2)
	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
}
