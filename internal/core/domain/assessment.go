package domain

import "time"

// Confidence is the judge's stated certainty in its verdict.
type Confidence string

// Confidence levels.
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// IsValid returns true if the confidence level is recognised.
func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Confidence) String() string {
	return string(c)
}

// Score bounds for a judged verdict.
const (
	MinScore = 1
	MaxScore = 100
)

// Scores assigned by the fallback paths.
const (
	NoEvidenceScore   = 0
	ParseFailureScore = 50
)

// Evidence text recorded by the fallback paths.
const (
	NoEvidenceText   = "No relevant literature found"
	ParseFailureText = "Failed to parse LLM response"
)

// Verdict is the structured payload the judge is asked to return.
type Verdict struct {
	Score                   int        `json:"score" validate:"gte=1,lte=100"`
	Confidence              Confidence `json:"confidence" validate:"oneof=low medium high"`
	NumSupportingSources    int        `json:"num_supporting_sources" validate:"gte=0"`
	NumContradictingSources int        `json:"num_contradicting_sources" validate:"gte=0"`
	KeyEvidence             string     `json:"key_evidence"`
	SupportingPapers        []string   `json:"supporting_papers"`
	ContradictingPapers     []string   `json:"contradicting_papers"`
}

// Outcome distinguishes how an assessment was produced.
type Outcome string

// Assessment outcomes.
const (
	// OutcomeJudged means the judge returned a decodable verdict.
	OutcomeJudged Outcome = "judged"

	// OutcomeNoEvidence means retrieval found nothing and the judge was skipped.
	OutcomeNoEvidence Outcome = "no_evidence"

	// OutcomeParseFailure means every judge attempt returned undecodable output.
	OutcomeParseFailure Outcome = "parse_failure"
)

// String returns the string representation.
func (o Outcome) String() string {
	return string(o)
}

// IsDefault reports whether the verdict came from a fallback path.
func (o Outcome) IsDefault() bool {
	return o == OutcomeNoEvidence || o == OutcomeParseFailure
}

// Diagnostics records how an assessment was reached.
type Diagnostics struct {
	// Outcome is the path the assessment engine took.
	Outcome Outcome

	// RetrievedChunks is the number of chunks handed to the judge.
	RetrievedChunks int

	// TopSimilarity is the best similarity score among retrieved chunks.
	TopSimilarity float64

	// Attempts is the number of judge invocations.
	Attempts int

	// PromptTokens is the estimated size of the user prompt.
	PromptTokens int
}

// Assessment is the stored literature-support result for one fact.
// It is keyed by FactNumber and replaced on reprocessing.
type Assessment struct {
	FactNumber     int
	Verdict        Verdict
	Diagnostics    Diagnostics
	ProcessingTime time.Duration
	Model          string
	CreatedAt      time.Time
}

// NoEvidenceVerdict is the verdict for a fact with no retrieved literature.
func NoEvidenceVerdict() Verdict {
	return Verdict{
		Score:               NoEvidenceScore,
		Confidence:          ConfidenceLow,
		KeyEvidence:         NoEvidenceText,
		SupportingPapers:    []string{},
		ContradictingPapers: []string{},
	}
}

// ParseFailureVerdict is the verdict for a fact whose judge output never decoded.
func ParseFailureVerdict() Verdict {
	return Verdict{
		Score:               ParseFailureScore,
		Confidence:          ConfidenceLow,
		KeyEvidence:         ParseFailureText,
		SupportingPapers:    []string{},
		ContradictingPapers: []string{},
	}
}

// SupportLevel buckets a score into the scale given to the judge.
type SupportLevel string

// Support levels.
const (
	SupportNone       SupportLevel = "no_support"
	SupportWeak       SupportLevel = "weak"
	SupportModerate   SupportLevel = "moderate"
	SupportStrong     SupportLevel = "strong"
	SupportVeryStrong SupportLevel = "very_strong"
)

// AllSupportLevels returns the levels from weakest to strongest.
func AllSupportLevels() []SupportLevel {
	return []SupportLevel{SupportNone, SupportWeak, SupportModerate, SupportStrong, SupportVeryStrong}
}

// SupportLevelFor maps a score to its support level.
// Scores at or below 20, including the no-evidence score of 0, are no support.
func SupportLevelFor(score int) SupportLevel {
	switch {
	case score <= 20:
		return SupportNone
	case score <= 40:
		return SupportWeak
	case score <= 60:
		return SupportModerate
	case score <= 80:
		return SupportStrong
	default:
		return SupportVeryStrong
	}
}

// Description returns a human-readable description of the level.
func (l SupportLevel) Description() string {
	switch l {
	case SupportNone:
		return "No evidence or contradictory evidence"
	case SupportWeak:
		return "Weak or indirect support"
	case SupportModerate:
		return "Moderate support"
	case SupportStrong:
		return "Strong support"
	case SupportVeryStrong:
		return "Very strong support"
	default:
		return unknownDescription
	}
}
