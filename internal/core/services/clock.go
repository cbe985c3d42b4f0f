package services

import (
	"context"
	"time"

	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

// systemClock is the wall-clock implementation of driven.Clock.
type systemClock struct{}

var _ driven.Clock = systemClock{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
