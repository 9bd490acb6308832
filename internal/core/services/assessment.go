package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
	"github.com/custodia-labs/litreview/internal/logger"
)

// EngineConfig tunes the assessment engine.
type EngineConfig struct {
	// TopK is how many chunks are retrieved per fact (default 20).
	TopK int

	// MaxAttempts bounds judge invocations when output fails to parse (default 3).
	MaxAttempts int

	// Generation options forwarded to the judge.
	Temperature   float64
	TopP          float64
	ContextSize   int
	RepeatPenalty float64
}

// EngineConfigFromSettings builds an EngineConfig from application settings.
func EngineConfigFromSettings(s *domain.AppSettings) EngineConfig {
	return EngineConfig{
		TopK:          s.Review.TopK,
		MaxAttempts:   s.Review.MaxAttempts,
		Temperature:   s.LLM.Temperature,
		TopP:          s.LLM.TopP,
		ContextSize:   s.LLM.ContextSize,
		RepeatPenalty: s.LLM.RepeatPenalty,
	}
}

// AssessmentEngine scores one fact against retrieved literature.
//
// Per fact it retrieves chunks, short-circuits to a no-evidence verdict when
// none are found, otherwise builds a context block and prompt, invokes the judge
// and parses its JSON verdict. Undecodable output is retried with the identical
// prompt; when attempts run out a parse-failure verdict is returned.
// The engine holds no per-fact state.
type AssessmentEngine struct {
	retriever    ChunkRetriever
	judge        driven.LLMService
	prompts      driven.PromptStore
	tokenCounter driven.TokenCounter
	validate     *validator.Validate
	cfg          EngineConfig
	now          func() time.Time
}

// NewAssessmentEngine creates an engine. prompts may be nil to use the built-in templates.
func NewAssessmentEngine(
	retriever ChunkRetriever,
	judge driven.LLMService,
	prompts driven.PromptStore,
	cfg EngineConfig,
) *AssessmentEngine {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = domain.DefaultMaxAttempts
	}
	return &AssessmentEngine{
		retriever: retriever,
		judge:     judge,
		prompts:   prompts,
		validate:  validator.New(),
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetTokenCounter sets the counter used to estimate prompt size.
// Without one, a four-bytes-per-token heuristic is used.
func (e *AssessmentEngine) SetTokenCounter(counter driven.TokenCounter) {
	e.tokenCounter = counter
}

// Model returns the judge's model name.
func (e *AssessmentEngine) Model() string {
	return e.judge.ModelName()
}

// Assess produces an assessment for fact.
// Errors are returned only for retrieval or judge transport failures.
func (e *AssessmentEngine) Assess(ctx context.Context, fact domain.Fact) (*domain.Assessment, error) {
	start := time.Now()
	logger.Debug("Assessing fact #%d", fact.Number)

	// 1. Retrieve
	chunks, err := e.retriever.Retrieve(ctx, fact.Text, e.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve for fact %d: %w", fact.Number, err)
	}

	assessment := &domain.Assessment{
		FactNumber: fact.Number,
		Model:      e.judge.ModelName(),
		Diagnostics: domain.Diagnostics{
			RetrievedChunks: len(chunks),
			TopSimilarity:   domain.TopSimilarity(chunks),
		},
	}

	// 2. Short-circuit when the corpus has nothing to say
	if len(chunks) == 0 {
		logger.Info("Fact #%d: no relevant literature, skipping judge", fact.Number)
		assessment.Verdict = domain.NoEvidenceVerdict()
		assessment.Diagnostics.Outcome = domain.OutcomeNoEvidence
		return e.finish(assessment, start), nil
	}

	// 3. Build context and prompt
	system, userTemplate := e.loadPrompts()
	prompt, used, tokens := e.fitPrompt(system, userTemplate, fact, chunks)
	assessment.Diagnostics.RetrievedChunks = used
	assessment.Diagnostics.PromptTokens = tokens
	if used < len(chunks) {
		logger.Info("Fact #%d: dropped %d lowest-ranked excerpts to fit the %d token context window",
			fact.Number, len(chunks)-used, e.cfg.ContextSize)
	}
	if e.cfg.ContextSize > 0 && tokens > e.cfg.ContextSize {
		logger.Warn("Fact #%d: prompt is ~%d tokens, over the %d token context window",
			fact.Number, tokens, e.cfg.ContextSize)
	}

	opts := driven.GenerateOptions{
		System:        system,
		Temperature:   e.cfg.Temperature,
		TopP:          e.cfg.TopP,
		ContextSize:   e.cfg.ContextSize,
		RepeatPenalty: e.cfg.RepeatPenalty,
	}

	// 4. Invoke judge and parse, retrying on undecodable output
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		assessment.Diagnostics.Attempts = attempt

		raw, err := e.judge.Generate(ctx, prompt, opts)
		if err != nil {
			return nil, fmt.Errorf("judge fact %d: %w", fact.Number, err)
		}

		verdict, err := e.ParseVerdict(raw)
		if err == nil {
			assessment.Verdict = *verdict
			assessment.Diagnostics.Outcome = domain.OutcomeJudged
			logger.Info("Fact #%d: score %d, confidence %s", fact.Number, verdict.Score, verdict.Confidence)
			return e.finish(assessment, start), nil
		}
		logger.Warn("Fact #%d: attempt %d/%d returned unparseable output: %v",
			fact.Number, attempt, e.cfg.MaxAttempts, err)
	}

	// 5. Retries exhausted
	logger.Warn("Fact #%d: no valid verdict after %d attempts, using default", fact.Number, e.cfg.MaxAttempts)
	assessment.Verdict = domain.ParseFailureVerdict()
	assessment.Diagnostics.Outcome = domain.OutcomeParseFailure
	return e.finish(assessment, start), nil
}

func (e *AssessmentEngine) finish(a *domain.Assessment, start time.Time) *domain.Assessment {
	a.ProcessingTime = time.Since(start)
	a.CreatedAt = e.now()
	return a
}

func (e *AssessmentEngine) loadPrompts() (system, user string) {
	system, user = domain.DefaultAssessmentSystemPrompt, domain.DefaultAssessmentUserPrompt
	if e.prompts == nil {
		return system, user
	}
	if p, err := e.prompts.Load(driven.PromptAssessmentSystem); err == nil && p != "" {
		system = p
	} else if err != nil {
		logger.Warn("Using built-in system prompt: %v", err)
	}
	if p, err := e.prompts.Load(driven.PromptAssessmentUser); err == nil && p != "" {
		user = p
	} else if err != nil {
		logger.Warn("Using built-in user prompt: %v", err)
	}
	return system, user
}

// fitPrompt renders the user prompt, dropping the lowest-ranked excerpts
// until system plus prompt fit ContextSize. At least one excerpt is kept.
// It returns the prompt, the number of excerpts used and its token count.
func (e *AssessmentEngine) fitPrompt(system, tmpl string, fact domain.Fact, chunks []domain.RetrievedChunk) (string, int, int) {
	n := len(chunks)
	for {
		prompt := fmt.Sprintf(tmpl, fact.Number, fact.Text, BuildContext(chunks[:n]))
		tokens := e.countTokens(system + prompt)
		if e.cfg.ContextSize <= 0 || tokens <= e.cfg.ContextSize || n <= 1 {
			return prompt, n, tokens
		}
		n--
	}
}

func (e *AssessmentEngine) countTokens(text string) int {
	if e.tokenCounter != nil {
		return e.tokenCounter.Count(text)
	}
	return (len(text) + 3) / 4
}

// BuildContext renders retrieved chunks as labelled excerpts in retrieval order.
func BuildContext(chunks []domain.RetrievedChunk) string {
	parts := make([]string, 0, len(chunks))
	for i, rc := range chunks {
		filename := rc.Chunk.Filename
		if filename == "" {
			filename = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("[Document %d: %s (similarity: %.3f)]\n%s\n",
			i+1, filename, rc.Similarity, rc.Chunk.Text))
	}
	return strings.Join(parts, "\n")
}

// ExtractJSON strips a fenced code block, with or without a language tag,
// from a judge response. Unfenced text is returned trimmed.
func ExtractJSON(response string) string {
	text := strings.TrimSpace(response)

	open := strings.Index(text, "```")
	if open < 0 {
		return text
	}
	body := text[open+3:]

	// Drop a language tag such as "json" on the fence line.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(body[:nl]); tag != "" && !strings.ContainsAny(tag, "{[") {
			body = body[nl+1:]
		}
	} else if strings.HasPrefix(strings.ToLower(body), "json") {
		body = body[len("json"):]
	}

	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// rawVerdict tolerates numbers sent as floats or quoted strings.
type rawVerdict struct {
	Score                   json.Number `json:"score"`
	Confidence              string      `json:"confidence"`
	NumSupportingSources    json.Number `json:"num_supporting_sources"`
	NumContradictingSources json.Number `json:"num_contradicting_sources"`
	KeyEvidence             string      `json:"key_evidence"`
	SupportingPapers        []string    `json:"supporting_papers"`
	ContradictingPapers     []string    `json:"contradicting_papers"`
}

// ParseVerdict decodes a judge response into a verdict.
// Out-of-range scores are clamped into [1,100] and unknown confidence labels become low.
// It returns domain.ErrMalformedVerdict when no JSON object with a score can be decoded.
func (e *AssessmentEngine) ParseVerdict(response string) (*domain.Verdict, error) {
	var raw rawVerdict
	if err := json.Unmarshal([]byte(ExtractJSON(response)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedVerdict, err)
	}
	if raw.Score == "" {
		return nil, fmt.Errorf("%w: missing score", domain.ErrMalformedVerdict)
	}
	score, err := raw.Score.Float64()
	if err != nil {
		return nil, fmt.Errorf("%w: score %q: %v", domain.ErrMalformedVerdict, raw.Score, err)
	}

	v := &domain.Verdict{
		Score:                   int(math.Round(score)),
		Confidence:              domain.Confidence(strings.ToLower(strings.TrimSpace(raw.Confidence))),
		NumSupportingSources:    numberOrZero(raw.NumSupportingSources),
		NumContradictingSources: numberOrZero(raw.NumContradictingSources),
		KeyEvidence:             strings.TrimSpace(raw.KeyEvidence),
		SupportingPapers:        nonNil(raw.SupportingPapers),
		ContradictingPapers:     nonNil(raw.ContradictingPapers),
	}

	if err := e.validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				logger.Debug("Normalising verdict field %s (%s=%s, got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
			}
		}
		normaliseVerdict(v)
	}
	return v, nil
}

func normaliseVerdict(v *domain.Verdict) {
	v.Score = min(max(v.Score, domain.MinScore), domain.MaxScore)
	if !v.Confidence.IsValid() {
		v.Confidence = domain.ConfidenceLow
	}
	v.NumSupportingSources = max(v.NumSupportingSources, 0)
	v.NumContradictingSources = max(v.NumContradictingSources, 0)
}

func numberOrZero(n json.Number) int {
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return int(math.Round(f))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
