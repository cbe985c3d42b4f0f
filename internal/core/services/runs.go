package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
	"github.com/custodia-labs/pagevec/internal/core/ports/driving"
)

// Ensure RunHistoryService implements the interface.
var _ driving.RunHistory = (*RunHistoryService)(nil)

// RunHistoryService reads recorded pipeline runs.
type RunHistoryService struct {
	store driven.RunStore
}

// NewRunHistoryService creates a run history service.
func NewRunHistoryService(store driven.RunStore) *RunHistoryService {
	return &RunHistoryService{store: store}
}

// List returns the most recent runs first.
func (s *RunHistoryService) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	runs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Get returns one run. A unique id prefix is accepted.
func (s *RunHistoryService) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty run id", domain.ErrInvalidInput)
	}
	rec, err := s.store.Get(ctx, id)
	if err == nil {
		return rec, nil
	}

	runs, listErr := s.store.List(ctx, 0)
	if listErr != nil {
		return nil, err
	}
	var found *domain.RunRecord
	for i := range runs {
		if strings.HasPrefix(runs[i].ID, id) {
			if found != nil {
				return nil, fmt.Errorf("%w: run id prefix %q is ambiguous", domain.ErrInvalidInput, id)
			}
			found = &runs[i]
		}
	}
	if found == nil {
		return nil, err
	}
	return found, nil
}
