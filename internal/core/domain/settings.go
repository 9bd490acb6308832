package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or the judge.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is the Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// StorageBackend identifies the document store implementation.
type StorageBackend string

// Available storage backends.
const (
	StorageSQLite StorageBackend = "sqlite"
	StorageMongo  StorageBackend = "mongo"
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StorageMongo, StorageMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `validate:"required"`

	// Model is the embedding model name.
	Model string `validate:"required"`

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string `validate:"omitempty,url"`

	// APIKey is the API key (for cloud providers).
	APIKey string

	// Dimensions is the embedding vector size.
	Dimensions int `validate:"gt=0"`

	// BatchSize is how many texts are embedded per round-trip during indexing.
	BatchSize int `validate:"gt=0"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds judge model configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider `validate:"required"`

	// Model is the LLM model name.
	Model string `validate:"required"`

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string `validate:"omitempty,url"`

	// APIKey is the API key (for cloud providers).
	APIKey string

	// Temperature is the sampling temperature.
	Temperature float64 `validate:"gte=0,lte=2"`

	// TopP is the nucleus sampling threshold.
	TopP float64 `validate:"gte=0,lte=1"`

	// ContextSize is the model context window in tokens.
	ContextSize int `validate:"gt=0"`

	// RepeatPenalty discourages repetition (Ollama only).
	RepeatPenalty float64 `validate:"gte=0"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings controls how documents are split.
type ChunkingSettings struct {
	Size    int `validate:"gt=0"`
	Overlap int `validate:"gte=0,ltfield=Size"`
}

// ReviewSettings controls the assessment loop.
type ReviewSettings struct {
	// TopK is how many chunks are retrieved per fact.
	TopK int `validate:"gt=0"`

	// MaxAttempts bounds judge invocations when output fails to parse.
	MaxAttempts int `validate:"gt=0"`
}

// StorageSettings selects and locates the document store.
type StorageSettings struct {
	Backend       StorageBackend `validate:"required"`
	SQLitePath    string
	MongoURI      string `validate:"omitempty,uri"`
	MongoDatabase string
}

// PathSettings locates the job's inputs and outputs.
type PathSettings struct {
	// PapersDir holds one sub-directory of PDFs per paper.
	PapersDir string

	// CatalogueDir holds the fact catalogue CSV files.
	CatalogueDir string

	// DataDir holds checkpoints, metrics and the default SQLite database.
	DataDir string
}

// RateSettings paces calls to the AI backends.
// A zero value disables pacing.
type RateSettings struct {
	EmbedPerSecond float64 `validate:"gte=0"`
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunking  ChunkingSettings
	Review    ReviewSettings
	Storage   StorageSettings
	Paths     PathSettings
	Rate      RateSettings
}

// Default values mirrored by DefaultAppSettings.
const (
	DefaultChunkSize       = 1000
	DefaultChunkOverlap    = 200
	DefaultTopK            = 20
	DefaultMaxAttempts     = 3
	DefaultEmbedBatchSize  = 50
	DefaultEmbedDimensions = 768
)

// DefaultAppSettings returns settings that work against a local Ollama instance.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOllama,
			Model:      "nomic-embed-text",
			BaseURL:    "http://localhost:11434",
			Dimensions: DefaultEmbedDimensions,
			BatchSize:  DefaultEmbedBatchSize,
		},
		LLM: LLMSettings{
			Provider:      AIProviderOllama,
			Model:         "gpt-oss:120b",
			BaseURL:       "http://localhost:11434",
			Temperature:   0.1,
			TopP:          0.9,
			ContextSize:   32000,
			RepeatPenalty: 1.1,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Review: ReviewSettings{
			TopK:        DefaultTopK,
			MaxAttempts: DefaultMaxAttempts,
		},
		Storage: StorageSettings{
			Backend:       StorageSQLite,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "deb_literature_review",
		},
		Paths: PathSettings{
			PapersDir:    "files",
			CatalogueDir: "csv_files",
			DataDir:      "data",
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "gpt-oss:120b",
		AIProviderOpenAI: "gpt-4o-mini",
		AIProviderGemini: "gemini-1.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
	}
}
