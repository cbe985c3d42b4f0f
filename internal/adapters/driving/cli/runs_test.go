package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagevec/internal/core/domain"
)

func sampleRuns(t *testing.T) []domain.RunRecord {
	t.Helper()
	result, err := json.Marshal(&domain.ProcessingResult{
		RunID: "0f3c9a2e-1111", DocName: "report", PDFURL: "https://example.com/report.pdf", Success: true,
		Index: &domain.SyncResult{Success: true, DocSource: "report", TotalVectors: 4},
	})
	require.NoError(t, err)

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []domain.RunRecord{
		{ID: "0f3c9a2e-1111", DocName: "report", PDFURL: "https://example.com/report.pdf",
			StartStage: domain.StageParse, Success: true, StartedAt: started, Elapsed: 2 * time.Second, Result: result},
		{ID: "7b21d004-2222", DocName: "manual", StartStage: domain.StageEmbed,
			FailedStage: domain.StageIndex, Error: "index stage: vector store error", StartedAt: started.Add(-time.Hour)},
	}
}

func TestRunsCmd_ListEmpty(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "runs")

	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestRunsListCmd_PrintsRuns(t *testing.T) {
	ts := setupTestServices(t)
	ts.runs.runs = sampleRuns(t)

	out, err := execute(t, "runs", "list", "-n", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, ts.runs.lastLimit)
	assert.Contains(t, out, "0f3c9a2e")
	assert.NotContains(t, out, "0f3c9a2e-1111")
	assert.Contains(t, out, "report")
	assert.Contains(t, out, "manual")
	assert.Contains(t, out, "index")
}

func TestRunsShowCmd_DecodesResult(t *testing.T) {
	ts := setupTestServices(t)
	ts.runs.runs = sampleRuns(t)

	out, err := execute(t, "runs", "show", "0f3c9a2e-1111")

	require.NoError(t, err)
	assert.Contains(t, out, "Processing result")
	assert.Contains(t, out, "https://example.com/report.pdf")
}

func TestRunsShowCmd_WithoutResult(t *testing.T) {
	ts := setupTestServices(t)
	ts.runs.runs = sampleRuns(t)

	out, err := execute(t, "runs", "show", "7b21d004-2222")

	require.NoError(t, err)
	assert.Contains(t, out, "Run 7b21d004-2222")
	assert.Contains(t, out, "vector store error")
}

func TestRunsShowCmd_NotFound(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "runs", "show", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "12345678", shortID("123456789"))
}
