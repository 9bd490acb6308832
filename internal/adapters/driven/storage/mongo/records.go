package mongo

import (
	"time"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

// documentRecord is the BSON shape of a domain.Document.
type documentRecord struct {
	DocID        string    `bson:"doc_id"`
	Filename     string    `bson:"filename"`
	Filepath     string    `bson:"filepath"`
	Text         string    `bson:"text"`
	PageCount    int       `bson:"page_count"`
	Status       string    `bson:"status"`
	ErrorMessage string    `bson:"error_message,omitempty"`
	ExtractedAt  time.Time `bson:"extracted_at,omitempty"`
}

func toDocumentRecord(d *domain.Document) documentRecord {
	return documentRecord{
		DocID:        d.DocID,
		Filename:     d.Filename,
		Filepath:     d.Filepath,
		Text:         d.Text,
		PageCount:    d.PageCount,
		Status:       string(d.Status),
		ErrorMessage: d.ErrorMessage,
		ExtractedAt:  d.ExtractedAt.UTC(),
	}
}

func (r documentRecord) toDomain() domain.Document {
	return domain.Document{
		DocID:        r.DocID,
		Filename:     r.Filename,
		Filepath:     r.Filepath,
		Text:         r.Text,
		PageCount:    r.PageCount,
		Status:       domain.ExtractionStatus(r.Status),
		ErrorMessage: r.ErrorMessage,
		ExtractedAt:  r.ExtractedAt,
	}
}

// chunkRecord is the BSON shape of a domain.Chunk. A null embedding means not yet embedded.
type chunkRecord struct {
	DocID     string    `bson:"doc_id"`
	ChunkID   int       `bson:"chunk_id"`
	CharStart int       `bson:"char_start"`
	CharEnd   int       `bson:"char_end"`
	Text      string    `bson:"text"`
	Filename  string    `bson:"filename"`
	Embedding []float32 `bson:"embedding"`
}

func toChunkRecord(c domain.Chunk) chunkRecord {
	return chunkRecord{
		DocID:     c.DocID,
		ChunkID:   c.ChunkID,
		CharStart: c.CharStart,
		CharEnd:   c.CharEnd,
		Text:      c.Text,
		Filename:  c.Filename,
		Embedding: c.Embedding,
	}
}

func (r chunkRecord) toDomain() domain.Chunk {
	return domain.Chunk{
		DocID:     r.DocID,
		ChunkID:   r.ChunkID,
		CharStart: r.CharStart,
		CharEnd:   r.CharEnd,
		Text:      r.Text,
		Filename:  r.Filename,
		Embedding: r.Embedding,
	}
}

// factRecord is the BSON shape of a domain.Fact.
type factRecord struct {
	FactNumber int       `bson:"fact_number"`
	Text       string    `bson:"text"`
	Section    string    `bson:"section"`
	SourceFile string    `bson:"source_file"`
	Embedding  []float32 `bson:"embedding,omitempty"`
}

func (r factRecord) toDomain() domain.Fact {
	return domain.Fact{
		Number:     r.FactNumber,
		Text:       r.Text,
		Section:    r.Section,
		SourceFile: r.SourceFile,
		Embedding:  r.Embedding,
	}
}

// assessmentRecord flattens a domain.Assessment into one document.
type assessmentRecord struct {
	FactNumber              int       `bson:"fact_number"`
	Score                   int       `bson:"score"`
	Confidence              string    `bson:"confidence"`
	NumSupportingSources    int       `bson:"num_supporting_sources"`
	NumContradictingSources int       `bson:"num_contradicting_sources"`
	KeyEvidence             string    `bson:"key_evidence"`
	SupportingPapers        []string  `bson:"supporting_papers"`
	ContradictingPapers     []string  `bson:"contradicting_papers"`
	Outcome                 string    `bson:"outcome"`
	RetrievedChunks         int       `bson:"retrieved_chunks"`
	TopSimilarity           float64   `bson:"top_similarity"`
	Attempts                int       `bson:"attempts"`
	PromptTokens            int       `bson:"prompt_tokens"`
	ProcessingNS            int64     `bson:"processing_ns"`
	Model                   string    `bson:"model"`
	CreatedAt               time.Time `bson:"created_at"`
}

func toAssessmentRecord(a *domain.Assessment) assessmentRecord {
	v, d := a.Verdict, a.Diagnostics
	return assessmentRecord{
		FactNumber:              a.FactNumber,
		Score:                   v.Score,
		Confidence:              string(v.Confidence),
		NumSupportingSources:    v.NumSupportingSources,
		NumContradictingSources: v.NumContradictingSources,
		KeyEvidence:             v.KeyEvidence,
		SupportingPapers:        nonNil(v.SupportingPapers),
		ContradictingPapers:     nonNil(v.ContradictingPapers),
		Outcome:                 string(d.Outcome),
		RetrievedChunks:         d.RetrievedChunks,
		TopSimilarity:           d.TopSimilarity,
		Attempts:                d.Attempts,
		PromptTokens:            d.PromptTokens,
		ProcessingNS:            int64(a.ProcessingTime),
		Model:                   a.Model,
		CreatedAt:               a.CreatedAt.UTC(),
	}
}

func (r assessmentRecord) toDomain() domain.Assessment {
	return domain.Assessment{
		FactNumber: r.FactNumber,
		Verdict: domain.Verdict{
			Score:                   r.Score,
			Confidence:              domain.Confidence(r.Confidence),
			NumSupportingSources:    r.NumSupportingSources,
			NumContradictingSources: r.NumContradictingSources,
			KeyEvidence:             r.KeyEvidence,
			SupportingPapers:        nonNil(r.SupportingPapers),
			ContradictingPapers:     nonNil(r.ContradictingPapers),
		},
		Diagnostics: domain.Diagnostics{
			Outcome:         domain.Outcome(r.Outcome),
			RetrievedChunks: r.RetrievedChunks,
			TopSimilarity:   r.TopSimilarity,
			Attempts:        r.Attempts,
			PromptTokens:    r.PromptTokens,
		},
		ProcessingTime: time.Duration(r.ProcessingNS),
		Model:          r.Model,
		CreatedAt:      r.CreatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
