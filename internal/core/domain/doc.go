// Package domain defines the core entities of the StudyMate retrieval engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Plain text handed to the engine for ingestion
//   - Chunk: An overlapping word window of a document, the unit of retrieval
//   - SearchResult: A ranked chunk with matched terms and adjacent context
//   - IndexStats: Counts describing the current search index
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
