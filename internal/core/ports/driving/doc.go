// Package driving defines what the CLI calls into: the Pipeline and its
// BatchProcessor, the QueryService for search and ask, and RunHistory.
// These are the "driving" ports in hexagonal architecture terminology.
//
// Implementations live in internal/core/services.
package driving
