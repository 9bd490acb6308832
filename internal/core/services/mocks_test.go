package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// --- Port stubs shared by the service tests ---

var errTransport = errors.New("connection refused")

// stubEmbedder implements driven.EmbeddingService.
// Texts listed in vectors get that vector; others get a vector derived from their length.
type stubEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fail     map[string]bool
	batchErr error
	embedErr error
	dims     int

	embedCalls int
	batchCalls int
}

func newStubEmbedder(dims int) *stubEmbedder {
	return &stubEmbedder{
		vectors: make(map[string][]float32),
		fail:    make(map[string]bool),
		dims:    dims,
	}
}

func (m *stubEmbedder) vectorFor(text string) ([]float32, error) {
	if m.fail[text] {
		return nil, errTransport
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	v := make([]float32, m.dims)
	for i := range v {
		v[i] = float32(len(text)%7+1) / float32(i+1)
	}
	return v, nil
}

func (m *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text)
}

func (m *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.vectorFor(text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *stubEmbedder) Dimensions() int { return m.dims }
func (m *stubEmbedder) ModelName() string { return "stub-embed" }
func (m *stubEmbedder) Ping(_ context.Context) error { return nil }
func (m *stubEmbedder) Close() error { return nil }

// stubJudge implements driven.LLMService, replaying responses in order.
// The last response repeats once the list is exhausted.
type stubJudge struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	prompts   []string
	opts      []driven.GenerateOptions
}

func (m *stubJudge) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	i := min(m.calls-1, len(m.responses)-1)
	return m.responses[i], nil
}

func (m *stubJudge) ModelName() string { return "stub-judge" }
func (m *stubJudge) Ping(_ context.Context) error { return nil }
func (m *stubJudge) Close() error { return nil }

// stubRetriever implements ChunkRetriever.
type stubRetriever struct {
	chunks []domain.RetrievedChunk
	err    error
	calls  int
	lastK  int
}

func (m *stubRetriever) Retrieve(_ context.Context, _ string, k int) ([]domain.RetrievedChunk, error) {
	m.calls++
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	return m.chunks, nil
}

// stubPrompts implements driven.PromptStore.
type stubPrompts struct {
	prompts map[string]string
	err     error
}

func (m *stubPrompts) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompts[name], nil
}

func (m *stubPrompts) Reload() {}

// stubCheckpointStore implements driven.CheckpointStore, keeping a copy of the last save.
type stubCheckpointStore struct {
	cp      *domain.Checkpoint
	saves   int
	saveErr error
	loadErr error
}

func (m *stubCheckpointStore) Load(_ context.Context) (*domain.Checkpoint, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.cp == nil {
		return nil, domain.ErrNotFound
	}
	return cloneCheckpoint(m.cp), nil
}

func (m *stubCheckpointStore) Save(_ context.Context, cp *domain.Checkpoint) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.cp = cloneCheckpoint(cp)
	return nil
}

func (m *stubCheckpointStore) Delete(_ context.Context) error {
	m.cp = nil
	return nil
}

func cloneCheckpoint(cp *domain.Checkpoint) *domain.Checkpoint {
	c := *cp
	c.FailedFacts = append([]int{}, cp.FailedFacts...)
	return &c
}

// stubCatalogue implements driven.CatalogueSource.
type stubCatalogue struct {
	facts []domain.Fact
	err   error
}

func (m *stubCatalogue) LoadFacts(_ context.Context) ([]domain.Fact, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Fact, len(m.facts))
	copy(out, m.facts)
	return out, nil
}

// stubReport implements driven.ReportSink.
type stubReport struct {
	updated []int
	missing map[int]bool
}

func (m *stubReport) UpdateFact(_ context.Context, a *domain.Assessment) error {
	if m.missing[a.FactNumber] {
		return domain.ErrNotFound
	}
	m.updated = append(m.updated, a.FactNumber)
	return nil
}

// stubAssessor implements FactAssessor with a per-call function.
type stubAssessor struct {
	assess func(fact domain.Fact) (*domain.Assessment, error)
	seen   []int
}

func (m *stubAssessor) Assess(_ context.Context, fact domain.Fact) (*domain.Assessment, error) {
	m.seen = append(m.seen, fact.Number)
	return m.assess(fact)
}

// stubExtractor implements driven.TextExtractor.
type stubExtractor struct {
	mu    sync.Mutex
	pages map[string][]string
	calls int
}

func (m *stubExtractor) Extract(_ context.Context, path string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	pages, ok := m.pages[path]
	if !ok {
		return nil, errors.New("malformed PDF")
	}
	return pages, nil
}

func (m *stubExtractor) SupportedExtensions() []string { return []string{".pdf"} }

// stubMetrics implements driven.MetricsRecorder.
type stubMetrics struct {
	mu        sync.Mutex
	extracted map[string]int
	embedded  int
	degraded  int
	outcomes  map[string]int
	failed    int
	attempts  []int
	flushes   int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{extracted: make(map[string]int), outcomes: make(map[string]int)}
}

func (m *stubMetrics) DocumentExtracted(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extracted[status]++
}

func (m *stubMetrics) ChunksEmbedded(ok, degraded int) {
	m.embedded += ok
	m.degraded += degraded
}

func (m *stubMetrics) FactAssessed(outcome string, _ time.Duration) { m.outcomes[outcome]++ }
func (m *stubMetrics) FactFailed() { m.failed++ }
func (m *stubMetrics) JudgeAttempts(n int) { m.attempts = append(m.attempts, n) }

func (m *stubMetrics) Flush() error {
	m.flushes++
	return nil
}

// stubAIValidator implements driven.AIConfigValidator.
type stubAIValidator struct {
	embedErr error
	llmErr   error
}

func (m *stubAIValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error { return m.embedErr }
func (m *stubAIValidator) ValidateLLM(_ *domain.LLMSettings) error { return m.llmErr }

// factsNumbered returns facts numbered 1..n.
func factsNumbered(n int) []domain.Fact {
	facts := make([]domain.Fact, n)
	for i := range facts {
		facts[i] = domain.Fact{Number: i + 1, Text: "fact text " + string(rune('a'+i%26)), Section: "Growth"}
	}
	return facts
}

func judgedAssessment(n, score int) *domain.Assessment {
	return &domain.Assessment{
		FactNumber: n,
		Verdict: domain.Verdict{
			Score:      score,
			Confidence: domain.ConfidenceMedium,
		},
		Diagnostics: domain.Diagnostics{Outcome: domain.OutcomeJudged, Attempts: 1},
	}
}

// stubWatcher implements driven.DirectoryWatcher with a test-fed channel.
type stubWatcher struct {
	changes chan domain.PaperChange
	err     error
	dir     string
}

func (m *stubWatcher) Watch(_ context.Context, dir string) (<-chan domain.PaperChange, error) {
	m.dir = dir
	if m.err != nil {
		return nil, m.err
	}
	return m.changes, nil
}

func (m *stubWatcher) Close() error { return nil }
