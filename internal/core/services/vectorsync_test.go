package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagevec/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

func testVectorConfig() domain.VectorConfig {
	return domain.DefaultConfig().Vector
}

// prepareCheckpoints writes a payload and its embeddings for doc.
func prepareCheckpoints(t *testing.T, artifacts driven.ArtifactStore, doc string, pages ...string) {
	t.Helper()
	writeTestPayload(t, artifacts, doc, pages...)
	_, err := NewEmbeddingRequester(&mockEmbedder{dims: 3}, artifacts, 3).Embed(context.Background(), doc)
	require.NoError(t, err)
}

func TestVectorSynchronizer_Sync(t *testing.T) {
	artifacts := newArtifacts(t)
	prepareCheckpoints(t, artifacts, "doc", "a", "b", "c")
	store := memory.NewStore()
	syncer := NewVectorSynchronizer(store, artifacts, testVectorConfig())

	res, err := syncer.Sync(context.Background(), "doc")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.TotalVectors)
	assert.Zero(t, res.Deleted)
	assert.Equal(t, 3, store.Len())
}

func TestVectorSynchronizer_Sync_Idempotent(t *testing.T) {
	artifacts := newArtifacts(t)
	prepareCheckpoints(t, artifacts, "doc", "a", "b", "c")
	store := memory.NewStore()
	require.NoError(t, store.Upsert(context.Background(), []domain.VectorEntry{
		{ID: "other_0", Vector: []float32{1, 1, 1}, Metadata: domain.VectorMetadata{DocSource: "other"}},
	}))
	syncer := NewVectorSynchronizer(store, artifacts, testVectorConfig())
	ctx := context.Background()

	for run := 1; run <= 2; run++ {
		res, err := syncer.Sync(ctx, "doc")
		require.NoError(t, err)
		assert.Equal(t, 3, res.TotalVectors)

		ids, err := syncer.FindExisting(ctx, "doc")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"doc_0", "doc_1", "doc_2"}, ids, "run %d", run)
	}

	assert.Equal(t, 4, store.Len())
}

func TestVectorSynchronizer_Sync_RemovesVectorsOfLongerPreviousRun(t *testing.T) {
	artifacts := newArtifacts(t)
	store := memory.NewStore()
	syncer := NewVectorSynchronizer(store, artifacts, testVectorConfig())
	ctx := context.Background()

	prepareCheckpoints(t, artifacts, "doc", "1", "2", "3", "4", "5")
	_, err := syncer.Sync(ctx, "doc")
	require.NoError(t, err)

	prepareCheckpoints(t, artifacts, "doc", "1", "2")
	res, err := syncer.Sync(ctx, "doc")
	require.NoError(t, err)

	assert.Equal(t, 5, res.Deleted)
	assert.Equal(t, 2, store.Len())
	_, ok := storedEntry(t, store, "doc_4")
	assert.False(t, ok)
}

func TestVectorSynchronizer_Sync_MissingEmbeddings(t *testing.T) {
	artifacts := newArtifacts(t)
	writeTestPayload(t, artifacts, "doc", "a")
	syncer := NewVectorSynchronizer(memory.NewStore(), artifacts, testVectorConfig())

	res, err := syncer.Sync(context.Background(), "doc")

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "embeddings")
	assert.Contains(t, res.Error, "embed stage")
}

func TestVectorSynchronizer_Sync_MissingPayload(t *testing.T) {
	syncer := NewVectorSynchronizer(memory.NewStore(), newArtifacts(t), testVectorConfig())

	res, err := syncer.Sync(context.Background(), "doc")

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "payload not found")
}

func TestVectorSynchronizer_Sync_NoVectors(t *testing.T) {
	artifacts := newArtifacts(t)
	prepareCheckpoints(t, artifacts, "doc")
	syncer := NewVectorSynchronizer(memory.NewStore(), artifacts, testVectorConfig())

	_, err := syncer.Sync(context.Background(), "doc")

	assert.ErrorIs(t, err, domain.ErrNoVectors)
}

func TestVectorSynchronizer_Sync_CorruptEmbeddingsKeepsIndex(t *testing.T) {
	artifacts := newArtifacts(t)
	prepareCheckpoints(t, artifacts, "doc", "a", "b")
	store := memory.NewStore()
	syncer := NewVectorSynchronizer(store, artifacts, testVectorConfig())
	ctx := context.Background()
	_, err := syncer.Sync(ctx, "doc")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(artifacts.Path(driven.ArtifactEmbeddings, "doc"), []byte("{not json"), 0600))
	_, err = syncer.Sync(ctx, "doc")

	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	ids, err := syncer.FindExisting(ctx, "doc")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc_0", "doc_1"}, ids)
}

func TestVectorSynchronizer_Sync_EmptyEmbeddingsKeepsIndex(t *testing.T) {
	artifacts := newArtifacts(t)
	prepareCheckpoints(t, artifacts, "doc", "a", "b")
	store := memory.NewStore()
	syncer := NewVectorSynchronizer(store, artifacts, testVectorConfig())
	ctx := context.Background()
	_, err := syncer.Sync(ctx, "doc")
	require.NoError(t, err)

	_, err = artifacts.WriteJSON(driven.ArtifactEmbeddings, "doc", domain.EmbeddingResponse{})
	require.NoError(t, err)
	_, err = syncer.Sync(ctx, "doc")

	assert.ErrorIs(t, err, domain.ErrNoVectors)
	assert.Equal(t, 2, store.Len())
}

func TestVectorSynchronizer_FindExisting_Paginates(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	var entries []domain.VectorEntry
	for i := 0; i < 25; i++ {
		doc := "doc"
		if i%2 == 1 {
			doc = "noise"
		}
		entries = append(entries, domain.VectorEntry{
			ID:       fmt.Sprintf("%s_%02d", doc, i),
			Vector:   []float32{1},
			Metadata: domain.VectorMetadata{DocSource: doc},
		})
	}
	require.NoError(t, store.Upsert(ctx, entries))
	cfg := testVectorConfig()
	cfg.RangeLimit = 4
	syncer := NewVectorSynchronizer(store, newArtifacts(t), cfg)

	ids, err := syncer.FindExisting(ctx, "doc")

	require.NoError(t, err)
	assert.Len(t, ids, 13)
}

func TestVectorSynchronizer_FindExisting_ErrorPropagates(t *testing.T) {
	store := &failingVectorStore{VectorStore: memory.NewStore(), rangeErr: errNetwork}
	syncer := NewVectorSynchronizer(store, newArtifacts(t), testVectorConfig())

	_, err := syncer.FindExisting(context.Background(), "doc")

	assert.ErrorIs(t, err, domain.ErrVectorStore)
	assert.ErrorIs(t, err, errNetwork)
}

func TestVectorSynchronizer_DeleteExisting_Batches(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	ids := make([]string, 0, 250)
	for i := 0; i < 250; i++ {
		id := fmt.Sprintf("doc_%d", i)
		ids = append(ids, id)
		require.NoError(t, store.Upsert(ctx, []domain.VectorEntry{{ID: id, Vector: []float32{1}}}))
	}
	syncer := NewVectorSynchronizer(store, newArtifacts(t), testVectorConfig())

	n, err := syncer.DeleteExisting(ctx, ids)

	require.NoError(t, err)
	assert.Equal(t, 250, n)
	assert.Zero(t, store.Len())
}

func TestVectorSynchronizer_DeleteExisting_Failure(t *testing.T) {
	store := &failingVectorStore{VectorStore: memory.NewStore(), deleteErr: errNetwork}
	syncer := NewVectorSynchronizer(store, newArtifacts(t), testVectorConfig())

	n, err := syncer.DeleteExisting(context.Background(), []string{"a"})

	assert.Zero(t, n)
	assert.ErrorIs(t, err, domain.ErrVectorStore)
}

func TestVectorSynchronizer_Sync_UpsertFailureAbortsRemainingBatches(t *testing.T) {
	artifacts := newArtifacts(t)
	pages := make([]string, 250)
	for i := range pages {
		pages[i] = fmt.Sprintf("p%d", i)
	}
	prepareCheckpoints(t, artifacts, "doc", pages...)
	inner := memory.NewStore()
	store := &failingVectorStore{VectorStore: inner, upsertErr: errNetwork, failUpsertAt: 2}
	syncer := NewVectorSynchronizer(store, artifacts, testVectorConfig())

	_, err := syncer.Sync(context.Background(), "doc")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrVectorStore))
	assert.Equal(t, 2, store.upsertCalls)
	// The first batch stays committed until the next run reconciles it.
	assert.Equal(t, 100, inner.Len())
}

func TestBuildVectors_PositionalAlignment(t *testing.T) {
	payload := &domain.EmbeddingRequest{Inputs: []domain.PageInput{
		{Content: []domain.ContentBlock{domain.TextBlock{Text: "p1"}, domain.ImageBlock{DataURL: "data:image/jpeg;base64,AA=="}}},
		{Content: []domain.ContentBlock{domain.TextBlock{Text: "p2"}}},
		{Content: []domain.ContentBlock{domain.ImageBlock{DataURL: "data:image/png;base64,AA=="}}},
	}}
	emb := &domain.EmbeddingResponse{Data: []domain.EmbeddingData{
		{Embedding: []float32{1}}, {Embedding: []float32{2}}, {Embedding: []float32{3}},
	}}

	vectors := BuildVectors(emb, payload, "doc", func(name string) string { return "/img/" + name })

	require.Len(t, vectors, len(emb.Data))
	for i, v := range vectors {
		assert.Equal(t, domain.VectorID("doc", i), v.ID)
		assert.Equal(t, i+1, v.Metadata.PageNumber)
		assert.Equal(t, "doc", v.Metadata.DocSource)
	}
	assert.True(t, vectors[0].Metadata.ImageIsReference)
	assert.Equal(t, "doc_page_1.jpg", vectors[0].Metadata.ImageReference)
	assert.Equal(t, "/img/doc_page_1.jpg", vectors[0].Metadata.ImagePath)
	assert.False(t, vectors[1].Metadata.HasImage())
	assert.Equal(t, "doc_page_3.jpg", vectors[2].Metadata.ImageReference)
	assert.Empty(t, vectors[2].Metadata.Text)
}

func TestBuildVectors_MoreEmbeddingsThanInputs(t *testing.T) {
	payload := &domain.EmbeddingRequest{}
	emb := &domain.EmbeddingResponse{Data: []domain.EmbeddingData{{Embedding: []float32{1}}}}

	vectors := BuildVectors(emb, payload, "doc", nil)

	require.Len(t, vectors, 1)
	assert.Empty(t, vectors[0].Metadata.Text)
	assert.Equal(t, 1, vectors[0].Metadata.PageNumber)
}
