// Package postgres implements driven.VectorStore on PostgreSQL with the
// pgvector extension.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

// Verify interface implementation at compile time.
var _ driven.VectorStore = (*Store)(nil)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS pagevec_vectors (
    id TEXT PRIMARY KEY,
    namespace TEXT NOT NULL DEFAULT '',
    doc_source TEXT NOT NULL,
    embedding vector NOT NULL,
    metadata JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pagevec_vectors_doc ON pagevec_vectors(namespace, doc_source);
`

// Store keeps vectors in the pagevec_vectors table.
type Store struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewStore connects to cfg.PostgresURL and ensures the schema exists.
func NewStore(ctx context.Context, cfg domain.VectorConfig) (*Store, error) {
	if cfg.PostgresURL == "" {
		return nil, fmt.Errorf("%w: postgres URL is required", domain.ErrInvalidInput)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{pool: pool, namespace: cfg.Namespace}, nil
}

// Range scans entries ordered by id. The cursor is the last id returned.
func (s *Store) Range(ctx context.Context, req domain.RangeRequest) (*domain.RangePage, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = domain.DefaultRangeLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, embedding, metadata
		 FROM pagevec_vectors
		 WHERE namespace = $1 AND id > $2
		 ORDER BY id
		 LIMIT $3`,
		s.namespace, req.Cursor, limit+1,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to range vectors: %w", err)
	}
	defer rows.Close()

	var entries []domain.VectorEntry
	for rows.Next() {
		var (
			e    domain.VectorEntry
			vec  pgvector.Vector
			meta []byte
		)
		if err := rows.Scan(&e.ID, &vec, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan vector: %w", err)
		}
		if req.IncludeVectors {
			e.Vector = vec.Slice()
		}
		if req.IncludeMetadata {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for %s: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pageOf(entries, limit), nil
}

// pageOf trims a limit+1 lookahead result into a page with its cursor.
func pageOf(entries []domain.VectorEntry, limit int) *domain.RangePage {
	if len(entries) <= limit {
		return &domain.RangePage{Vectors: entries}
	}
	entries = entries[:limit]
	return &domain.RangePage{Vectors: entries, NextCursor: entries[limit-1].ID}
}

// Delete removes entries by id.
func (s *Store) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM pagevec_vectors WHERE namespace = $1 AND id = ANY($2)`,
		s.namespace, ids,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete vectors: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Upsert inserts or replaces entries in one batch.
func (s *Store) Upsert(ctx context.Context, entries []domain.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", e.ID, err)
		}
		batch.Queue(
			`INSERT INTO pagevec_vectors (id, namespace, doc_source, embedding, metadata)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET
			     namespace = EXCLUDED.namespace,
			     doc_source = EXCLUDED.doc_source,
			     embedding = EXCLUDED.embedding,
			     metadata = EXCLUDED.metadata`,
			e.ID, s.namespace, e.Metadata.DocSource, pgvector.NewVector(e.Vector), meta,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert vector %d: %w", i, err)
		}
	}
	return nil
}

// Query ranks entries by cosine distance. Score is 1 - distance.
func (s *Store) Query(ctx context.Context, q domain.VectorQuery) ([]domain.QueryMatch, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	namespace := q.Namespace
	if namespace == "" {
		namespace = s.namespace
	}

	vec := pgvector.NewVector(q.Vector)
	rows, err := s.pool.Query(ctx,
		`SELECT id, metadata, 1 - (embedding <=> $1) AS score
		 FROM pagevec_vectors
		 WHERE namespace = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		vec, namespace, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var matches []domain.QueryMatch
	for rows.Next() {
		var (
			m    domain.QueryMatch
			meta []byte
		)
		if err := rows.Scan(&m.ID, &meta, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		if q.IncludeMetadata {
			if err := json.Unmarshal(meta, &m.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for %s: %w", m.ID, err)
			}
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
