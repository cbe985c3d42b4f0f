package driven

import (
	"context"

	"github.com/custodia-labs/pagevec/internal/core/domain"
)

// DocumentParser is the remote job-based document parsing service.
// A job is submitted once, polled by status, and its per-page output
// fetched after it reaches a successful terminal state.
type DocumentParser interface {
	// Submit creates a parse job and returns its identifier.
	// A rejected submission returns a *domain.UploadError.
	Submit(ctx context.Context, req SubmitRequest) (string, error)

	// Status returns the current status of a job.
	Status(ctx context.Context, jobID string) (domain.JobStatus, error)

	// Result returns the structured per-page output of a finished job.
	Result(ctx context.Context, jobID string) (*ParseOutput, error)

	// Image downloads one named image produced by the job.
	Image(ctx context.Context, jobID, name string) ([]byte, error)
}

// SubmitRequest holds the job parameters sent on submission.
type SubmitRequest struct {
	// InputURL is the source document URL.
	InputURL string

	// Multimodal asks the service to parse with a vendor multimodal model.
	Multimodal bool

	// ModelName is the vendor model used when Multimodal is set.
	ModelName string

	// NumWorkers is the server-side worker count.
	NumWorkers int
}

// ParseOutput is the structured result of a parse job.
type ParseOutput struct {
	Pages []ParsedPage `json:"pages"`
}

// ParsedPage is one page of parse output.
type ParsedPage struct {
	// Page is the 1-based page number reported by the service.
	Page int `json:"page"`

	// Markdown is the extracted page text.
	Markdown string `json:"md"`

	// Images lists images extracted from the page.
	Images []ParsedImage `json:"images"`
}

// ParsedImage references an image that can be fetched with Image.
type ParsedImage struct {
	Name string `json:"name"`
}
