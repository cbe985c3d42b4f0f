package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagevec/internal/adapters/driven/artifacts/file"
	storagememory "github.com/custodia-labs/pagevec/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pagevec/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

type pipelineFixture struct {
	parser    *mockParser
	embedder  *mockEmbedder
	artifacts *file.Store
	store     *memory.Store
	runs      *storagememory.RunStore
	clock     *fakeClock
	pipeline  *PipelineOrchestrator
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		parser: &mockParser{
			jobID:    "job-1",
			statuses: []domain.JobStatus{domain.JobPending, domain.JobSuccess},
			output:   twoPageOutput(),
			images:   twoPageImages(),
		},
		embedder:  &mockEmbedder{dims: 3},
		artifacts: newArtifacts(t),
		store:     memory.NewStore(),
		runs:      storagememory.NewRunStore(),
		clock:     newFakeClock(),
	}
	f.pipeline = NewPipelineOrchestrator(
		NewJobPoller(f.parser, testParserConfig(), f.clock),
		NewArtifactExtractor(f.parser, f.artifacts, "voyage-multimodal-3", 0),
		NewEmbeddingRequester(f.embedder, f.artifacts, 3),
		NewVectorSynchronizer(f.store, f.artifacts, testVectorConfig()),
		f.runs,
	)
	return f
}

func TestPipeline_Process_TwoPageDocument(t *testing.T) {
	f := newPipelineFixture(t)

	res := f.pipeline.Process(context.Background(), "https://example.com/files/report.pdf?x=1", "")

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "report", res.DocName)
	assert.NotEmpty(t, res.RunID)
	assert.Empty(t, res.FailedStage)

	require.NotNil(t, res.Parse)
	assert.Equal(t, 2, res.Parse.PagesProcessed)
	assert.Equal(t, 1, res.Parse.ImagesSaved)
	require.NotNil(t, res.Embed)
	assert.Equal(t, 2, res.Embed.TotalEmbeddings)
	require.NotNil(t, res.Index)
	assert.Equal(t, 2, res.Index.TotalVectors)
	assert.Equal(t, f.clock.Now().Sub(res.StartedAt), res.Elapsed)

	first, ok := storedEntry(t, f.store, "report_0")
	require.True(t, ok)
	assert.True(t, first.Metadata.ImageIsReference)
	assert.Equal(t, "report_page_1.jpg", first.Metadata.ImageReference)
	assert.Equal(t, 1, first.Metadata.PageNumber)

	second, ok := storedEntry(t, f.store, "report_1")
	require.True(t, ok)
	assert.False(t, second.Metadata.HasImage())
	assert.Equal(t, "Second page", second.Metadata.Text)
	assert.Equal(t, 2, f.store.Len())
}

func TestPipeline_Process_RecordsRun(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	res := f.pipeline.Process(ctx, "https://example.com/report.pdf", "")

	rec, err := f.runs.Get(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "report", rec.DocName)
	assert.Equal(t, domain.StageParse, rec.StartStage)
	assert.True(t, rec.Success)

	var stored domain.ProcessingResult
	require.NoError(t, json.Unmarshal(rec.Result, &stored))
	assert.Equal(t, res.RunID, stored.RunID)
}

func TestPipeline_Process_NameOverrideIsSanitized(t *testing.T) {
	f := newPipelineFixture(t)

	res := f.pipeline.Process(context.Background(), "https://example.com/a.pdf", "my report/v2")

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "myreportv2", res.DocName)
	assert.True(t, f.artifacts.Exists(driven.ArtifactPayload, "myreportv2"))
}

func TestPipeline_Process_JobStatusFailures(t *testing.T) {
	tests := []struct {
		status domain.JobStatus
		want   error
	}{
		{domain.JobError, domain.ErrJobFailed},
		{domain.JobCancelled, domain.ErrJobCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			f := newPipelineFixture(t)
			f.parser.statuses = []domain.JobStatus{tt.status}

			_, err := f.pipeline.Parse(context.Background(), "https://example.com/a.pdf", "")
			assert.ErrorIs(t, err, tt.want)

			res := f.pipeline.Process(context.Background(), "https://example.com/a.pdf", "")
			assert.False(t, res.Success)
			assert.Equal(t, domain.StageParse, res.FailedStage)
			assert.Contains(t, res.Error, "parse stage: ")
			assert.Nil(t, res.Embed)
			assert.Zero(t, f.embedder.calls)
		})
	}
}

func TestPipeline_Process_TimeoutIsParseFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.parser.statuses = []domain.JobStatus{domain.JobProcessing}

	res := f.pipeline.Process(context.Background(), "https://example.com/a.pdf", "")

	assert.False(t, res.Success)
	assert.Equal(t, domain.StageParse, res.FailedStage)
	assert.Contains(t, res.Error, "PROCESSING")
}

func TestPipeline_Process_UploadFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.parser.submitErr = &domain.UploadError{StatusCode: 401, Body: "invalid token"}

	res := f.pipeline.Process(context.Background(), "https://example.com/a.pdf", "")

	assert.False(t, res.Success)
	assert.Equal(t, domain.StageParse, res.FailedStage)
	assert.Contains(t, res.Error, "invalid token")
}

func TestPipeline_Process_EmbedFailureKeepsParseArtifacts(t *testing.T) {
	f := newPipelineFixture(t)
	f.embedder.err = &domain.EmbeddingError{StatusCode: 500, Body: "boom"}

	res := f.pipeline.Process(context.Background(), "https://example.com/report.pdf", "")

	assert.False(t, res.Success)
	assert.Equal(t, domain.StageEmbed, res.FailedStage)
	assert.Equal(t, "embed stage: embed report: embedding request failed (status 500): boom", res.Error)
	require.NotNil(t, res.Parse)
	assert.Nil(t, res.Index)
	assert.True(t, f.artifacts.Exists(driven.ArtifactPayload, "report"))
	assert.Zero(t, f.store.Len())
}

func TestPipeline_Resume(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.embedder.err = &domain.EmbeddingError{StatusCode: 503, Body: "unavailable"}
	failed := f.pipeline.Process(ctx, "https://example.com/report.pdf", "")
	require.Equal(t, domain.StageEmbed, failed.FailedStage)

	f.embedder.err = nil
	polls := f.parser.polls
	res := f.pipeline.Resume(ctx, "report", domain.StageEmbed)

	require.True(t, res.Success, res.Error)
	assert.Nil(t, res.Parse)
	assert.NotNil(t, res.Embed)
	assert.Equal(t, 2, res.Index.TotalVectors)
	assert.Equal(t, polls, f.parser.polls, "resume must not contact the parser")

	rec, err := f.runs.Get(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageEmbed, rec.StartStage)
}

func TestPipeline_Resume_IndexOnly(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	require.True(t, f.pipeline.Process(ctx, "https://example.com/report.pdf", "").Success)
	calls := f.embedder.calls

	res := f.pipeline.Resume(ctx, "report", domain.StageIndex)

	require.True(t, res.Success, res.Error)
	assert.Nil(t, res.Embed)
	assert.Equal(t, calls, f.embedder.calls)
	assert.Equal(t, 2, res.Index.Deleted)
	assert.Equal(t, 2, f.store.Len())
}

func TestPipeline_Resume_FromParseRejected(t *testing.T) {
	f := newPipelineFixture(t)

	res := f.pipeline.Resume(context.Background(), "report", domain.StageParse)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "needs the document URL")
}

func TestPipeline_Resume_MissingEmbeddingsIsIndexFailure(t *testing.T) {
	f := newPipelineFixture(t)
	writeTestPayload(t, f.artifacts, "report", "a")

	res := f.pipeline.Resume(context.Background(), "report", domain.StageIndex)

	assert.False(t, res.Success)
	assert.Equal(t, domain.StageIndex, res.FailedStage)
	require.NotNil(t, res.Index)
	assert.False(t, res.Index.Success)
	assert.Contains(t, res.Error, "index stage: embeddings not found")
}

func TestPipeline_Embed_MissingPayload(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.Embed(context.Background(), "nothing")

	assert.ErrorIs(t, err, domain.ErrMissingArtifact)
}

func TestClassifyJobStatus(t *testing.T) {
	assert.NoError(t, classifyJobStatus("j", domain.JobSuccess))
	assert.NoError(t, classifyJobStatus("j", domain.JobPartialSuccess))
	assert.ErrorIs(t, classifyJobStatus("j", domain.JobError), domain.ErrJobFailed)
	assert.ErrorIs(t, classifyJobStatus("j", domain.JobCancelled), domain.ErrJobCancelled)
	assert.ErrorIs(t, classifyJobStatus("j", domain.JobUnknown), domain.ErrJobFailed)
}

func TestResolveDocName(t *testing.T) {
	assert.Equal(t, "report", ResolveDocName("https://x.com/report.pdf", ""))
	assert.Equal(t, "custom", ResolveDocName("https://x.com/report.pdf", "custom"))
	assert.Equal(t, domain.FallbackDocName, ResolveDocName("https://x.com/report.pdf", "///"))
}
