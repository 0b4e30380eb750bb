// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Embedder: Maps text to a fixed-length vector. Only the single-item form is required.
//   - VectorIndex: In-process chunk and vector storage with snapshot reads.
//   - PostProcessorPipeline: Turns a document into chunks.
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - BatchEmbedder: Detected on the Embedder. Without it chunks are embedded one by one.
//   - ChunkStore: Chunk persistence. Without it the index is rebuilt by re-ingesting.
//   - SettingsStore: Settings file access. Without it defaults apply.
//   - Normaliser, DocumentReader: File text extraction, used by the CLI and watcher.
//   - FileWatcher: Directory watching for automatic re-ingestion.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or postprocessor package
package driven
