package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
	"github.com/custodia-labs/pagevec/internal/logger"
)

// JobPoller submits parse jobs and waits for them to finish.
type JobPoller struct {
	parser driven.DocumentParser
	clock  driven.Clock
	cfg    domain.ParserConfig
}

// NewJobPoller creates a poller. A nil clock uses the system clock.
func NewJobPoller(parser driven.DocumentParser, cfg domain.ParserConfig, clock driven.Clock) *JobPoller {
	if clock == nil {
		clock = systemClock{}
	}
	return &JobPoller{parser: parser, clock: clock, cfg: cfg}
}

// Submit creates a parse job for pdfURL and returns its id.
func (p *JobPoller) Submit(ctx context.Context, pdfURL string) (string, error) {
	if pdfURL == "" {
		return "", fmt.Errorf("%w: empty document URL", domain.ErrInvalidInput)
	}

	logger.Info("Submitting parse job for %s", pdfURL)
	jobID, err := p.parser.Submit(ctx, driven.SubmitRequest{
		InputURL:   pdfURL,
		Multimodal: p.cfg.Multimodal,
		ModelName:  p.cfg.Model,
		NumWorkers: p.cfg.NumWorkers,
	})
	if err != nil {
		return "", fmt.Errorf("submit parse job: %w", err)
	}
	if jobID == "" {
		return "", fmt.Errorf("%w: response carried no job id", domain.ErrUpload)
	}

	logger.Info("Job submitted: %s", jobID)
	return jobID, nil
}

// PollUntilTerminal polls the job status every CheckInterval until it is
// terminal or MaxWait has elapsed. Unknown statuses are polled like
// in-progress ones. On timeout the status is fetched once more and
// returned without error; classifying it is left to the caller.
func (p *JobPoller) PollUntilTerminal(ctx context.Context, jobID string) (domain.JobStatus, error) {
	start := p.clock.Now()
	last := domain.JobUnknown

	for p.clock.Now().Sub(start) < p.cfg.MaxWait {
		status, err := p.parser.Status(ctx, jobID)
		if err != nil {
			return last, fmt.Errorf("get status of job %s: %w", jobID, err)
		}
		last = status

		if status.IsTerminal() {
			logger.Info("Job %s finished with status %s", jobID, status)
			return status, nil
		}
		if status.IsInProgress() {
			logger.Info("Job in progress: %s", status)
		} else {
			logger.Debug("Unknown job status %q, polling again", status)
		}

		if err := p.clock.Sleep(ctx, p.cfg.CheckInterval); err != nil {
			return last, err
		}
	}

	logger.Warn("Job %s not finished after %s", jobID, p.cfg.MaxWait)
	status, err := p.parser.Status(ctx, jobID)
	if err != nil {
		logger.Warn("Final status check for job %s failed: %v", jobID, err)
		return last, nil
	}
	return status, nil
}
