package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ExtractionStatus records the outcome of reading a source document.
type ExtractionStatus string

// Extraction statuses.
const (
	ExtractionPending ExtractionStatus = "pending"
	ExtractionSuccess ExtractionStatus = "success"
	ExtractionFailed  ExtractionStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s ExtractionStatus) IsValid() bool {
	switch s {
	case ExtractionPending, ExtractionSuccess, ExtractionFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ExtractionStatus) String() string {
	return string(s)
}

// Document is a source paper and its extracted text.
// A document is immutable once extraction succeeds and owns its chunks.
type Document struct {
	// DocID is the unique identifier, derived from the paper's directory name.
	DocID string

	// Filename is the base name of the source file.
	Filename string

	// Filepath is the absolute path the document was read from.
	Filepath string

	// Text is the full extracted text with page markers.
	Text string

	// PageCount is the number of pages in the source file.
	PageCount int

	// Status is the extraction outcome.
	Status ExtractionStatus

	// ErrorMessage describes why extraction failed.
	ErrorMessage string

	// ExtractedAt is when extraction finished.
	ExtractedAt time.Time
}

// Chunk is a retrievable span of a document's text.
type Chunk struct {
	// DocID links to the owning Document.
	DocID string

	// ChunkID is the sequence number within the document, starting at 0.
	ChunkID int

	// CharStart is the inclusive rune offset of the span in the document text.
	CharStart int

	// CharEnd is the exclusive rune offset of the span in the document text.
	CharEnd int

	// Text is the trimmed span content.
	Text string

	// Embedding is nil until the chunk has been embedded.
	Embedding []float32

	// Filename is copied from the parent document for display without a lookup.
	Filename string
}

// Ref returns the chunk's composite key.
func (c Chunk) Ref() ChunkRef {
	return ChunkRef{DocID: c.DocID, ChunkID: c.ChunkID}
}

// HasEmbedding reports whether the chunk has been embedded.
func (c Chunk) HasEmbedding() bool {
	return c.Embedding != nil
}

// ChunkRef identifies a chunk by document and sequence number.
type ChunkRef struct {
	DocID   string
	ChunkID int
}

// Key returns the string form used as a vector index identifier.
func (r ChunkRef) Key() string {
	return r.DocID + "#" + strconv.Itoa(r.ChunkID)
}

// ParseChunkRef parses a key produced by ChunkRef.Key.
// The document id may itself contain '#'; the last separator wins.
func ParseChunkRef(key string) (ChunkRef, error) {
	i := strings.LastIndexByte(key, '#')
	if i <= 0 {
		return ChunkRef{}, fmt.Errorf("parse chunk key %q: %w", key, ErrInvalidInput)
	}
	id, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return ChunkRef{}, fmt.Errorf("parse chunk key %q: %w", key, ErrInvalidInput)
	}
	return ChunkRef{DocID: key[:i], ChunkID: id}, nil
}
