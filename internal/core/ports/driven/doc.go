// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Store: Documents, chunks, facts and assessments
//   - EmbeddingService: Maps text to fixed-dimension vectors
//   - LLMService: The judge model
//   - VectorIndex: Similarity search over chunk vectors
//   - CheckpointStore: Review run progress persistence
//   - CatalogueSource: Loads the fact catalogue
//   - ReportSink: Mirrors assessments into the tabular report
//   - TextExtractor: Reads page text from source files
//   - ConfigStore, PromptStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - TokenCounter: Prompt size estimates. Without it, a character heuristic is used.
//   - MetricsRecorder: Run metrics. Without it, nothing is recorded.
//   - DirectoryWatcher: Watch mode for extraction. Without it, watching is unavailable.
//   - CatalogueImporter: LaTeX catalogue import. Without it, import is unavailable.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
