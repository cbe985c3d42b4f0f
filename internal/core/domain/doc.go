// Package domain defines the core entities of the pagevec ingestion pipeline.
//
// This package is the innermost layer of the hexagonal architecture.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocName derivation: the stable key shared by every pipeline stage
//   - JobStatus: the lifecycle of a remote parse job
//   - ContentBlock, PageInput, EmbeddingRequest: the normalised page payload
//   - EmbeddingResponse: the raw embedding-service reply
//   - VectorEntry, VectorMetadata: the unit stored in the vector database
//   - ProcessingResult, RunRecord: the structured outcome of a pipeline run
//   - Config: the explicit configuration value handed to every component
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
