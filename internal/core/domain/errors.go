package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent pipeline failures.
// Typed errors below wrap them so callers can use errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpload indicates the parsing service rejected a job submission.
	ErrUpload = errors.New("upload failed")

	// ErrJobFailed indicates the parse job ended in a non-success state.
	ErrJobFailed = errors.New("parse job failed")

	// ErrJobCancelled indicates the parse job was cancelled remotely.
	ErrJobCancelled = errors.New("parse job cancelled")

	// ErrMissingArtifact indicates a required checkpoint file is absent.
	// The upstream stage must run first.
	ErrMissingArtifact = errors.New("missing artifact")

	// ErrEmbedding indicates the embedding service rejected a request.
	ErrEmbedding = errors.New("embedding request failed")

	// ErrVectorStore indicates a range, delete, upsert or query failure.
	ErrVectorStore = errors.New("vector store error")

	// ErrNoVectors indicates no vectors could be built from the checkpoints.
	ErrNoVectors = errors.New("no vectors prepared")

	// ErrInvalidPayload indicates a payload or response failed validation.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrRemote indicates a non-OK response from a remote service that has
	// no more specific classification.
	ErrRemote = errors.New("remote service error")
)

// UploadError is returned when the parse job submission is rejected.
type UploadError struct {
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed (status %d): %s", e.StatusCode, e.Body)
}

// Unwrap allows errors.Is(err, ErrUpload).
func (e *UploadError) Unwrap() error { return ErrUpload }

// EmbeddingError is returned when the embedding service answers non-OK.
type EmbeddingError struct {
	StatusCode int
	Body       string
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding request failed (status %d): %s", e.StatusCode, e.Body)
}

// Unwrap allows errors.Is(err, ErrEmbedding).
func (e *EmbeddingError) Unwrap() error { return ErrEmbedding }

// RemoteError is a non-OK response from a remote endpoint.
type RemoteError struct {
	Service    string
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Service, e.Op, e.StatusCode, e.Body)
}

// Unwrap allows errors.Is(err, ErrRemote).
func (e *RemoteError) Unwrap() error { return ErrRemote }

// MissingArtifactError names the absent checkpoint and the stage that
// produces it.
type MissingArtifactError struct {
	Path     string
	Producer Stage
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("missing artifact %s: run the %s stage first", e.Path, e.Producer)
}

// Unwrap allows errors.Is(err, ErrMissingArtifact).
func (e *MissingArtifactError) Unwrap() error { return ErrMissingArtifact }
