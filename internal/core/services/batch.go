package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
	"github.com/custodia-labs/pagevec/internal/core/ports/driving"
	"github.com/custodia-labs/pagevec/internal/logger"
)

// Ensure BatchRunner implements the interface.
var _ driving.BatchProcessor = (*BatchRunner)(nil)

// BatchRunner processes independent documents concurrently in bounded
// batches with a pause between batches. Two URLs with the same doc name
// never run in the same batch.
type BatchRunner struct {
	pipeline driving.Pipeline
	size     int
	pause    time.Duration
	clock    driven.Clock
}

// NewBatchRunner creates a runner. A nil clock uses the system clock.
func NewBatchRunner(pipeline driving.Pipeline, cfg domain.BatchConfig, clock driven.Clock) *BatchRunner {
	if clock == nil {
		clock = systemClock{}
	}
	size := cfg.Size
	if size <= 0 {
		size = domain.DefaultBatchSize
	}
	return &BatchRunner{pipeline: pipeline, size: size, pause: cfg.Pause, clock: clock}
}

// ProcessAll processes urls and returns one result per URL in input
// order. It only returns an error when ctx is cancelled between batches;
// the results gathered so far are returned with it.
func (r *BatchRunner) ProcessAll(ctx context.Context, urls []string) ([]*domain.ProcessingResult, error) {
	results := make([]*domain.ProcessingResult, len(urls))
	batches := PlanBatches(urls, r.size)

	for n, batch := range batches {
		logger.Section(fmt.Sprintf("Batch %d/%d (%d documents)", n+1, len(batches), len(batch)))

		g, gctx := errgroup.WithContext(ctx)
		for _, idx := range batch {
			g.Go(func() error {
				results[idx] = r.pipeline.Process(gctx, urls[idx], "")
				return nil
			})
		}
		_ = g.Wait()

		if n < len(batches)-1 && r.pause > 0 {
			if err := r.clock.Sleep(ctx, r.pause); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}

// PlanBatches groups URL indexes into batches of at most size, in input
// order. A URL whose doc name is already in the current batch is
// deferred to a later one.
func PlanBatches(urls []string, size int) [][]int {
	if size <= 0 {
		size = 1
	}

	pending := make([]int, len(urls))
	for i := range urls {
		pending[i] = i
	}

	var batches [][]int
	for len(pending) > 0 {
		var (
			batch    []int
			deferred []int
			names    = make(map[string]bool)
		)
		for _, idx := range pending {
			name := domain.DeriveDocName(urls[idx])
			if len(batch) >= size || names[name] {
				deferred = append(deferred, idx)
				continue
			}
			names[name] = true
			batch = append(batch, idx)
		}
		batches = append(batches, batch)
		pending = deferred
	}
	return batches
}
