package domain

import (
	"fmt"
	"time"
)

// ParseResult is the outcome of the parse stage.
type ParseResult struct {
	DocName        string    `json:"doc_name"`
	JobID          string    `json:"job_id"`
	JobStatus      JobStatus `json:"job_status"`
	PagesTotal     int       `json:"pages_total"`
	PagesProcessed int       `json:"pages_processed"`
	ImagesSaved    int       `json:"images_saved"`
	PayloadPath    string    `json:"payload_path"`
}

// EmbedResult is the outcome of the embed stage.
type EmbedResult struct {
	DocName         string `json:"doc_name"`
	OutputPath      string `json:"output_path"`
	TotalEmbeddings int    `json:"total_embeddings"`
	Dimensions      int    `json:"dimensions"`
}

// SyncResult is the outcome of the index stage.
// Missing checkpoints are reported here with Success=false rather than
// as an error, so callers can inspect partial state.
type SyncResult struct {
	Success        bool   `json:"success"`
	DocSource      string `json:"doc_source"`
	TotalVectors   int    `json:"total_vectors"`
	Deleted        int    `json:"deleted"`
	EmbeddingsPath string `json:"embeddings_path,omitempty"`
	PayloadPath    string `json:"payload_path,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ProcessingResult is the structured report of one pipeline run.
// A failed stage halts the run; results of completed stages are kept.
type ProcessingResult struct {
	RunID       string        `json:"run_id"`
	Success     bool          `json:"success"`
	PDFURL      string        `json:"pdf_url,omitempty"`
	DocName     string        `json:"doc_name"`
	Parse       *ParseResult  `json:"parse,omitempty"`
	Embed       *EmbedResult  `json:"embed,omitempty"`
	Index       *SyncResult   `json:"index,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Elapsed     time.Duration `json:"elapsed"`
	FailedStage Stage         `json:"failed_stage,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Fail records a stage failure on the result.
func (r *ProcessingResult) Fail(stage Stage, err error) {
	r.Success = false
	r.FailedStage = stage
	r.Error = StageError(stage, err)
}

// StageError formats an error message tagged with the failing stage.
func StageError(stage Stage, err error) string {
	return fmt.Sprintf("%s stage: %v", stage, err)
}

// RunRecord is the persisted history entry for a pipeline run.
type RunRecord struct {
	ID          string
	DocName     string
	PDFURL      string
	StartStage  Stage
	Success     bool
	FailedStage Stage
	Error       string
	StartedAt   time.Time
	Elapsed     time.Duration

	// Result is the full ProcessingResult serialised as JSON.
	Result []byte
}
