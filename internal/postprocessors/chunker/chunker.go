// Package chunker splits document text into overlapping, sentence-aware chunks.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// boundaryMarkers are tried in order; the first one present wins even if
// a later marker occurs closer to the window end.
var boundaryMarkers = []string{". ", ".\n", "! ", "? "}

// Processor splits document text into chunks that prefer to end on a sentence boundary.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Segment is one chunk's span before it is attached to a document.
// Start and End are rune offsets into the original text; Text is trimmed.
type Segment struct {
	Start int
	End   int
	Text  string
}

// Split divides text into segments. It is deterministic and never emits an empty segment.
// Sizes and offsets count characters (runes), so accented text chunks the same as ASCII.
//
// Each window starts at the previous end minus the overlap. A window that does not
// reach the end of the text is shortened to just after the last boundary marker
// inside it. If that would leave the next window starting at or before the current
// one, the unshortened end is kept so every character stays covered.
func (p *Processor) Split(text string) []Segment {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	segments := make([]Segment, 0, n/(p.chunkSize-p.overlap)+1)
	start := 0

	for start < n {
		end := min(start+p.chunkSize, n)
		if end < n {
			if adjusted, ok := boundaryEnd(runes, start, end); ok && adjusted-p.overlap > start {
				end = adjusted
			}
		}

		if trimmed := strings.TrimSpace(string(runes[start:end])); trimmed != "" {
			segments = append(segments, Segment{Start: start, End: end, Text: trimmed})
		}

		if end >= n {
			break
		}
		start = max(end-p.overlap, start+1)
	}

	return segments
}

// Chunk splits a document's text into domain chunks numbered from 0.
// Chunks carry the document's id and filename for display without a lookup.
func (p *Processor) Chunk(doc *domain.Document) []domain.Chunk {
	if doc == nil {
		return nil
	}

	segments := p.Split(doc.Text)
	chunks := make([]domain.Chunk, 0, len(segments))
	for i, seg := range segments {
		chunks = append(chunks, domain.Chunk{
			DocID:     doc.DocID,
			ChunkID:   i,
			CharStart: seg.Start,
			CharEnd:   seg.End,
			Text:      seg.Text,
			Filename:  doc.Filename,
		})
	}
	return chunks
}

// boundaryEnd looks for the first marker, in marker order, whose last occurrence
// in runes[start:end] begins after start, and returns the offset just past its period.
func boundaryEnd(runes []rune, start, end int) (int, bool) {
	window := string(runes[start:end])
	for _, marker := range boundaryMarkers {
		if pos := strings.LastIndex(window, marker); pos > 0 {
			return start + utf8.RuneCountInString(window[:pos]) + 1, true
		}
	}
	return 0, false
}
