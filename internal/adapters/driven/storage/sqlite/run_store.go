package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, doc_name, pdf_url, start_stage, success, failed_stage, error, started_at, elapsed_ns, result`

// Save stores or replaces a run record.
func (s *runStore) Save(ctx context.Context, rec *domain.RunRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("%w: run record needs an id", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			doc_name = excluded.doc_name,
			pdf_url = excluded.pdf_url,
			start_stage = excluded.start_stage,
			success = excluded.success,
			failed_stage = excluded.failed_stage,
			error = excluded.error,
			started_at = excluded.started_at,
			elapsed_ns = excluded.elapsed_ns,
			result = excluded.result
	`,
		rec.ID, rec.DocName, rec.PDFURL, string(rec.StartStage), rec.Success,
		string(rec.FailedStage), rec.Error, rec.StartedAt.UTC(), int64(rec.Elapsed), rec.Result,
	)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// Get retrieves a run by id.
func (s *runStore) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}
	return rec, nil
}

// List returns runs newest first.
func (s *runStore) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *rec)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *runStore) Close() error {
	return s.store.Close()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*domain.RunRecord, error) {
	var (
		rec         domain.RunRecord
		startStage  string
		failedStage string
		startedAt   time.Time
		elapsed     int64
	)
	err := sc.Scan(
		&rec.ID, &rec.DocName, &rec.PDFURL, &startStage, &rec.Success,
		&failedStage, &rec.Error, &startedAt, &elapsed, &rec.Result,
	)
	if err != nil {
		return nil, err
	}
	rec.StartStage = domain.Stage(startStage)
	rec.FailedStage = domain.Stage(failedStage)
	rec.StartedAt = startedAt
	rec.Elapsed = time.Duration(elapsed)
	return &rec, nil
}
