package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagevec/internal/core/domain"
)

func entry(id, doc string, vec ...float32) domain.VectorEntry {
	return domain.VectorEntry{ID: id, Vector: vec, Metadata: domain.VectorMetadata{DocSource: doc}}
}

func TestStore_RangePaginates(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Upsert(ctx, []domain.VectorEntry{entry(fmt.Sprintf("d_%d", i), "d", 1)}))
	}

	var seen []string
	cursor := ""
	pages := 0
	for {
		page, err := store.Range(ctx, domain.RangeRequest{Cursor: cursor, Limit: 2, IncludeMetadata: true})
		require.NoError(t, err)
		pages++
		for _, v := range page.Vectors {
			seen = append(seen, v.ID)
			assert.Equal(t, "d", v.Metadata.DocSource)
			assert.Nil(t, v.Vector)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"d_0", "d_1", "d_2", "d_3", "d_4"}, seen)
}

func TestStore_Delete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, []domain.VectorEntry{entry("a", "x", 1), entry("b", "x", 1)}))

	n, err := store.Delete(ctx, []string{"a", "missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Len())
}

func TestStore_UpsertReplaces(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, []domain.VectorEntry{entry("a", "old", 1)}))
	require.NoError(t, store.Upsert(ctx, []domain.VectorEntry{entry("a", "new", 2)}))

	page, err := store.Range(ctx, domain.RangeRequest{Limit: 10, IncludeMetadata: true, IncludeVectors: true})
	require.NoError(t, err)
	require.Len(t, page.Vectors, 1)
	assert.Equal(t, "new", page.Vectors[0].Metadata.DocSource)
	assert.Equal(t, []float32{2}, page.Vectors[0].Vector)
	assert.Equal(t, 1, store.Len())
}

func TestStore_QueryRanksByCosine(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, []domain.VectorEntry{
		entry("east", "d", 1, 0),
		entry("north", "d", 0, 1),
		entry("northeast", "d", 1, 1),
	}))

	matches, err := store.Query(ctx, domain.VectorQuery{Vector: []float32{0, 2}, TopK: 2, IncludeMetadata: true})
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "north", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	assert.Equal(t, "northeast", matches[1].ID)
	assert.Equal(t, "d", matches[0].Metadata.DocSource)
}

func TestCosine_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, cosine(nil, nil))
	assert.Equal(t, 0.0, cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 2}))
}
