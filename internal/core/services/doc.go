// Package services implements the driving port interfaces.
// Services contain the ingestion pipeline logic and orchestrate
// calls to driven ports (adapters).
//
// The pipeline is built leaf-first:
//
//   - JobPoller: submits a parse job and polls it to a terminal state
//   - ArtifactExtractor: turns parse output into images and a payload checkpoint
//   - EmbeddingRequester: posts the payload and stores the raw response
//   - VectorSynchronizer: reconciles a document's vectors in the store
//   - PipelineOrchestrator: sequences the stages and reports a structured result
//
// Services are pure Go with no CGO or external dependencies.
package services
