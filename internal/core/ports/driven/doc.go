// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - PageLoader / LoaderRegistry: Page-level text extraction per file type
//   - Segmenter / SegmenterRegistry: Chunking strategies selected by tag
//   - EmbeddingService: Generates vector embeddings
//   - IndexBackend / VectorIndex: Builds, persists, loads and queries the index
//   - LLMService: Generates grounded answers
//   - PromptStore: User-editable prompt templates (optional, defaults embedded)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
