package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
	"github.com/custodia-labs/pagevec/internal/core/ports/driving"
	"github.com/custodia-labs/pagevec/internal/logger"
)

// Ensure PipelineOrchestrator implements the interface.
var _ driving.Pipeline = (*PipelineOrchestrator)(nil)

// PipelineOrchestrator runs parse, embed and index for one document.
// A failed stage halts the run; artifacts of completed stages stay on
// disk so the run can be resumed from the failed stage.
type PipelineOrchestrator struct {
	poller    *JobPoller
	extractor *ArtifactExtractor
	embedder  *EmbeddingRequester
	syncer    *VectorSynchronizer
	runs      driven.RunStore
	clock     driven.Clock
}

// NewPipelineOrchestrator creates an orchestrator.
// runs is optional - if nil, runs are not recorded.
func NewPipelineOrchestrator(
	poller *JobPoller,
	extractor *ArtifactExtractor,
	embedder *EmbeddingRequester,
	syncer *VectorSynchronizer,
	runs driven.RunStore,
) *PipelineOrchestrator {
	return &PipelineOrchestrator{
		poller:    poller,
		extractor: extractor,
		embedder:  embedder,
		syncer:    syncer,
		runs:      runs,
		clock:     poller.clock,
	}
}

// ResolveDocName returns the sanitized override if one is given,
// otherwise the name derived from pdfURL.
func ResolveDocName(pdfURL, override string) string {
	if override != "" {
		return domain.SanitizeDocName(override)
	}
	return domain.DeriveDocName(pdfURL)
}

// Process runs every stage for pdfURL.
func (o *PipelineOrchestrator) Process(ctx context.Context, pdfURL, docName string) *domain.ProcessingResult {
	result := o.start(pdfURL, ResolveDocName(pdfURL, docName))
	logger.Section("Processing " + pdfURL)
	logger.Info("Document name: %s", result.DocName)

	logger.Step(domain.StageParse.Ordinal(), len(domain.Stages), domain.StageParse.Description())
	parsed, err := o.Parse(ctx, pdfURL, result.DocName)
	if err != nil {
		result.Fail(domain.StageParse, err)
		return o.finish(ctx, result, domain.StageParse)
	}
	result.Parse = parsed

	o.continueFrom(ctx, result, domain.StageEmbed)
	return o.finish(ctx, result, domain.StageParse)
}

// Resume runs the stages from 'from' onwards using existing checkpoints.
func (o *PipelineOrchestrator) Resume(ctx context.Context, docName string, from domain.Stage) *domain.ProcessingResult {
	result := o.start("", domain.SanitizeDocName(docName))
	logger.Section(fmt.Sprintf("Resuming %s from %s", result.DocName, from))

	switch from {
	case domain.StageEmbed, domain.StageIndex:
		o.continueFrom(ctx, result, from)
	case domain.StageParse:
		result.Fail(from, fmt.Errorf("%w: resuming from parse needs the document URL", domain.ErrInvalidInput))
	default:
		result.Fail(from, fmt.Errorf("%w: unknown stage %q", domain.ErrInvalidInput, from))
	}
	return o.finish(ctx, result, from)
}

// Parse submits the document, waits for the job and extracts its output.
func (o *PipelineOrchestrator) Parse(ctx context.Context, pdfURL, docName string) (*domain.ParseResult, error) {
	docName = ResolveDocName(pdfURL, docName)

	if err := o.extractor.Cleanup(docName); err != nil {
		return nil, fmt.Errorf("cleanup %s: %w", docName, err)
	}

	jobID, err := o.poller.Submit(ctx, pdfURL)
	if err != nil {
		return nil, err
	}

	status, err := o.poller.PollUntilTerminal(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := classifyJobStatus(jobID, status); err != nil {
		return nil, err
	}
	if status == domain.JobPartialSuccess {
		logger.Warn("Job %s finished with partial success", jobID)
	}

	extracted, err := o.extractor.Extract(ctx, jobID, docName)
	if err != nil {
		return nil, err
	}

	return &domain.ParseResult{
		DocName:        docName,
		JobID:          jobID,
		JobStatus:      status,
		PagesTotal:     extracted.PagesTotal,
		PagesProcessed: len(extracted.Inputs),
		ImagesSaved:    extracted.ImagesSaved,
		PayloadPath:    extracted.PayloadPath,
	}, nil
}

// Embed runs the embed stage for an already parsed document.
func (o *PipelineOrchestrator) Embed(ctx context.Context, docName string) (*domain.EmbedResult, error) {
	return o.embedder.Embed(ctx, domain.SanitizeDocName(docName))
}

// Index runs the index stage for an already embedded document.
func (o *PipelineOrchestrator) Index(ctx context.Context, docName string) (*domain.SyncResult, error) {
	return o.syncer.Sync(ctx, domain.SanitizeDocName(docName))
}

// classifyJobStatus maps a non-success terminal or timed-out status to
// an error.
func classifyJobStatus(jobID string, status domain.JobStatus) error {
	switch {
	case status.IsSuccess():
		return nil
	case status == domain.JobError:
		return fmt.Errorf("%w: job %s", domain.ErrJobFailed, jobID)
	case status == domain.JobCancelled:
		return fmt.Errorf("%w: job %s", domain.ErrJobCancelled, jobID)
	default:
		return fmt.Errorf("%w: job %s ended with status %s", domain.ErrJobFailed, jobID, status)
	}
}

func (o *PipelineOrchestrator) start(pdfURL, docName string) *domain.ProcessingResult {
	return &domain.ProcessingResult{
		RunID:     uuid.NewString(),
		PDFURL:    pdfURL,
		DocName:   docName,
		StartedAt: o.clock.Now(),
	}
}

// continueFrom runs embed (if from allows) and index, recording the
// outcome on result.
func (o *PipelineOrchestrator) continueFrom(ctx context.Context, result *domain.ProcessingResult, from domain.Stage) {
	total := len(domain.Stages)

	if from.Ordinal() <= domain.StageEmbed.Ordinal() {
		logger.Step(domain.StageEmbed.Ordinal(), total, domain.StageEmbed.Description())
		embedded, err := o.Embed(ctx, result.DocName)
		if err != nil {
			result.Fail(domain.StageEmbed, err)
			return
		}
		result.Embed = embedded
	}

	logger.Step(domain.StageIndex.Ordinal(), total, domain.StageIndex.Description())
	indexed, err := o.Index(ctx, result.DocName)
	if err != nil {
		result.Fail(domain.StageIndex, err)
		return
	}
	result.Index = indexed
	if !indexed.Success {
		result.Fail(domain.StageIndex, errors.New(indexed.Error))
		return
	}

	result.Success = true
}

func (o *PipelineOrchestrator) finish(
	ctx context.Context,
	result *domain.ProcessingResult,
	startStage domain.Stage,
) *domain.ProcessingResult {
	result.Elapsed = o.clock.Now().Sub(result.StartedAt)

	if result.Success {
		logger.Info("Completed %s in %s", result.DocName, result.Elapsed)
	} else {
		logger.Error("%s failed: %s", result.DocName, result.Error)
	}

	o.record(ctx, result, startStage)
	return result
}

// record stores the run. Failures are logged, never returned.
func (o *PipelineOrchestrator) record(ctx context.Context, result *domain.ProcessingResult, startStage domain.Stage) {
	if o.runs == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		logger.Warn("Failed to encode run %s: %v", result.RunID, err)
		return
	}

	rec := &domain.RunRecord{
		ID:          result.RunID,
		DocName:     result.DocName,
		PDFURL:      result.PDFURL,
		StartStage:  startStage,
		Success:     result.Success,
		FailedStage: result.FailedStage,
		Error:       result.Error,
		StartedAt:   result.StartedAt,
		Elapsed:     result.Elapsed,
		Result:      data,
	}
	if err := o.runs.Save(ctx, rec); err != nil {
		logger.Warn("Failed to record run %s: %v", result.RunID, err)
	}
}
