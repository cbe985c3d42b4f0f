// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentParser: Remote job-based PDF parsing service
//   - MultimodalEmbedder: Remote batch embedding service
//   - VectorStore: Remote (or local) vector index with range/delete/upsert/query
//   - ArtifactStore: Local checkpoint files keyed by doc name
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunStore: Run history. Without it, runs are not recorded.
//   - LLMService: Answer synthesis. Without it, ask falls back to plain search.
//   - Clock: Time source for polling. Defaults to the system clock.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
