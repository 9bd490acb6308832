package services

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
	"github.com/custodia-labs/litreview/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedBatchSize  = "embedding.batch_size"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMTemperature  = "llm.temperature"
	keyLLMTopP         = "llm.top_p"
	keyLLMContextSize  = "llm.context_size"
	keyLLMRepeat       = "llm.repeat_penalty"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyTopK            = "retrieval.top_k"
	keyMaxAttempts     = "review.max_attempts"
	keyStorageBackend  = "storage.backend"
	keySQLitePath      = "storage.sqlite_path"
	keyMongoURI        = "storage.mongo_uri"
	keyMongoDatabase   = "storage.mongo_database"
	keyPapersDir       = "paths.papers_dir"
	keyCatalogueDir    = "paths.catalogue_dir"
	keyDataDir         = "paths.data_dir"
	keyEmbedPerSecond  = "rate.embed_per_second"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
)

// settingKeys lists every key Set accepts and how its value is parsed.
var settingKeys = map[string]keyKind{
	keyEmbedProvider:  kindString,
	keyEmbedModel:     kindString,
	keyEmbedBaseURL:   kindString,
	keyEmbedAPIKey:    kindString,
	keyEmbedDims:      kindInt,
	keyEmbedBatchSize: kindInt,
	keyLLMProvider:    kindString,
	keyLLMModel:       kindString,
	keyLLMBaseURL:     kindString,
	keyLLMAPIKey:      kindString,
	keyLLMTemperature: kindFloat,
	keyLLMTopP:        kindFloat,
	keyLLMContextSize: kindInt,
	keyLLMRepeat:      kindFloat,
	keyChunkSize:      kindInt,
	keyChunkOverlap:   kindInt,
	keyTopK:           kindInt,
	keyMaxAttempts:    kindInt,
	keyStorageBackend: kindString,
	keySQLitePath:     kindString,
	keyMongoURI:       kindString,
	keyMongoDatabase:  kindString,
	keyPapersDir:      kindString,
	keyCatalogueDir:   kindString,
	keyDataDir:        kindString,
	keyEmbedPerSecond: kindFloat,
}

// SettingKeys returns every key accepted by Set, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	validate    *validator.Validate
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		validate:    validator.New(),
	}
}

// Get retrieves current application settings, filling unset keys with defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	embedModel := s.getString(keyEmbedModel, "")
	if embedModel == "" {
		embedModel = defaultModel(domain.DefaultEmbeddingModels(), embedProvider, defaults.Embedding.Model)
	}
	embedDims := s.getInt(keyEmbedDims, 0)
	if embedDims == 0 {
		embedDims = defaults.Embedding.Dimensions
		if d, ok := domain.EmbeddingDimensions()[embedModel]; ok {
			embedDims = d
		}
	}

	llmProvider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)
	llmModel := s.getString(keyLLMModel, "")
	if llmModel == "" {
		llmModel = defaultModel(domain.DefaultLLMModels(), llmProvider, defaults.LLM.Model)
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   embedProvider,
			Model:      embedModel,
			BaseURL:    s.getBaseURL(keyEmbedBaseURL, embedProvider, defaults.Embedding.BaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: embedDims,
			BatchSize:  s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
		},
		LLM: domain.LLMSettings{
			Provider:      llmProvider,
			Model:         llmModel,
			BaseURL:       s.getBaseURL(keyLLMBaseURL, llmProvider, defaults.LLM.BaseURL),
			APIKey:        s.configStore.GetString(keyLLMAPIKey),
			Temperature:   s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
			TopP:          s.getFloat(keyLLMTopP, defaults.LLM.TopP),
			ContextSize:   s.getInt(keyLLMContextSize, defaults.LLM.ContextSize),
			RepeatPenalty: s.getFloat(keyLLMRepeat, defaults.LLM.RepeatPenalty),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Review: domain.ReviewSettings{
			TopK:        s.getInt(keyTopK, defaults.Review.TopK),
			MaxAttempts: s.getInt(keyMaxAttempts, defaults.Review.MaxAttempts),
		},
		Storage: domain.StorageSettings{
			Backend:       s.getBackend(defaults.Storage.Backend),
			SQLitePath:    s.getString(keySQLitePath, defaults.Storage.SQLitePath),
			MongoURI:      s.getString(keyMongoURI, defaults.Storage.MongoURI),
			MongoDatabase: s.getString(keyMongoDatabase, defaults.Storage.MongoDatabase),
		},
		Paths: domain.PathSettings{
			PapersDir:    s.getString(keyPapersDir, defaults.Paths.PapersDir),
			CatalogueDir: s.getString(keyCatalogueDir, defaults.Paths.CatalogueDir),
			DataDir:      s.getString(keyDataDir, defaults.Paths.DataDir),
		},
		Rate: domain.RateSettings{
			EmbedPerSecond: s.getFloat(keyEmbedPerSecond, defaults.Rate.EmbedPerSecond),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key string
		val any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMTopP, settings.LLM.TopP},
		{keyLLMContextSize, settings.LLM.ContextSize},
		{keyLLMRepeat, settings.LLM.RepeatPenalty},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyTopK, settings.Review.TopK},
		{keyMaxAttempts, settings.Review.MaxAttempts},
		{keyStorageBackend, settings.Storage.Backend.String()},
		{keySQLitePath, settings.Storage.SQLitePath},
		{keyMongoURI, settings.Storage.MongoURI},
		{keyMongoDatabase, settings.Storage.MongoDatabase},
		{keyPapersDir, settings.Paths.PapersDir},
		{keyCatalogueDir, settings.Paths.CatalogueDir},
		{keyDataDir, settings.Paths.DataDir},
		{keyEmbedPerSecond, settings.Rate.EmbedPerSecond},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are only written when present so env-provided keys never land on disk.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return s.configStore.Save()
}

// Set updates a single dotted key from its string form and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("setting %s expects an integer: %w", key, domain.ErrInvalidInput)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("setting %s expects a number: %w", key, domain.ErrInvalidInput)
		}
		parsed = f
	default:
		parsed = value
	}

	switch key {
	case keyEmbedProvider, keyLLMProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("invalid provider %q: %w", value, domain.ErrUnsupportedProvider)
		}
	case keyStorageBackend:
		if !domain.StorageBackend(value).IsValid() {
			return fmt.Errorf("invalid storage backend %q: %w", value, domain.ErrInvalidInput)
		}
	}

	previous, existed := s.configStore.Get(key)
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := s.Validate(); err != nil {
		if !existed {
			previous = nil
		}
		if restoreErr := s.configStore.Set(key, previous); restoreErr != nil {
			return errors.Join(err, restoreErr)
		}
		return err
	}
	return s.configStore.Save()
}

// Validate checks the current settings for consistency.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.ValidateSettings(settings)
}

// ValidateSettings checks settings without reading the config store.
func (s *SettingsService) ValidateSettings(settings *domain.AppSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid setting %s (%s=%s): %w", fe.Namespace(), fe.Tag(), fe.Param(), domain.ErrInvalidInput)
		}
		return fmt.Errorf("validate settings: %w", err)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %s requires an API key: %w", settings.Embedding.Provider, domain.ErrInvalidInput)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("llm provider %s requires an API key: %w", settings.LLM.Provider, domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(keyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

// getBaseURL returns the configured endpoint. Local providers fall back to the
// default Ollama address; cloud providers use their SDK default when unset.
func (s *SettingsService) getBaseURL(key string, provider domain.AIProvider, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	if provider.IsLocal() {
		return defaultVal
	}
	return ""
}

func defaultModel(models map[domain.AIProvider]string, provider domain.AIProvider, fallback string) string {
	if m, ok := models[provider]; ok {
		return m
	}
	return fallback
}
