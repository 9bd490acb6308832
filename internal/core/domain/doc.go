// Package domain defines the core business entities for litreview.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A source paper with its extracted text
//   - Chunk: A retrievable text span within a document
//   - Fact: A stylized fact from the claim catalogue
//   - Assessment: The judged literature support for one fact
//   - Checkpoint: The resume cursor and failure ledger of a review run
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
