// Package memory provides an in-memory vector store for tests and dry runs.
package memory

import (
	"context"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is an in-memory implementation of driven.VectorStore.
// Range pages are ordered by id and the cursor is the last id returned.
type Store struct {
	mu      sync.RWMutex
	entries map[string]domain.VectorEntry
}

// NewStore creates an empty in-memory vector store.
func NewStore() *Store {
	return &Store{entries: make(map[string]domain.VectorEntry)}
}

// Range returns up to req.Limit entries with ids after req.Cursor.
func (s *Store) Range(_ context.Context, req domain.RangeRequest) (*domain.RangePage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sortedIDs()
	start := 0
	if req.Cursor != "" {
		start = sort.SearchStrings(ids, req.Cursor)
		if start < len(ids) && ids[start] == req.Cursor {
			start++
		}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = domain.DefaultRangeLimit
	}
	end := min(start+limit, len(ids))

	page := &domain.RangePage{Vectors: make([]domain.VectorEntry, 0, end-start)}
	for _, id := range ids[start:end] {
		e := s.entries[id]
		out := domain.VectorEntry{ID: e.ID}
		if req.IncludeMetadata {
			out.Metadata = e.Metadata
		}
		if req.IncludeVectors {
			out.Vector = slices.Clone(e.Vector)
		}
		page.Vectors = append(page.Vectors, out)
	}
	if end < len(ids) {
		page.NextCursor = ids[end-1]
	}
	return page, nil
}

// Delete removes entries and returns how many existed.
func (s *Store) Delete(_ context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := s.entries[id]; ok {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

// Upsert inserts or replaces entries.
func (s *Store) Upsert(_ context.Context, entries []domain.VectorEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		e.Vector = slices.Clone(e.Vector)
		s.entries[e.ID] = e
	}
	return nil
}

// Query ranks every entry by cosine similarity to q.Vector.
func (s *Store) Query(_ context.Context, q domain.VectorQuery) ([]domain.QueryMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]domain.QueryMatch, 0, len(s.entries))
	for _, e := range s.entries {
		m := domain.QueryMatch{ID: e.ID, Score: cosine(q.Vector, e.Vector)}
		if q.IncludeMetadata {
			m.Metadata = e.Metadata
		}
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if q.TopK > 0 && len(matches) > q.TopK {
		matches = matches[:q.TopK]
	}
	return matches, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// sortedIDs returns all ids in order (caller must hold lock).
func (s *Store) sortedIDs() []string {
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
