package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
	"github.com/custodia-labs/partsearch/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyCatalogPath       = "catalog.path"
	keySearchLimit       = "search.default_limit"
	keySearchRanker      = "search.ranker"
	keyLexicalFeatures   = "lexical.max_features"
	keyVectorEnabled     = "vector_index.enabled"
	keyVectorMetric      = "vector_index.metric"
	keyVectorCacheDir    = "vector_index.cache_dir"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedRPS          = "embedding.requests_per_second"
	keyConversationTurns = "conversation.history_size"
)

// Environment variables that override file values.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvCatalogPath  = "PARTSEARCH_CATALOG"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvOllamaHost   = "OLLAMA_HOST"
)

// settingKeys is the display order for settings show.
var settingKeys = []string{
	keyCatalogPath,
	keySearchLimit,
	keySearchRanker,
	keyLexicalFeatures,
	keyVectorEnabled,
	keyVectorMetric,
	keyVectorCacheDir,
	keyEmbedProvider,
	keyEmbedModel,
	keyEmbedBaseURL,
	keyEmbedAPIKey,
	keyEmbedRPS,
	keyConversationTurns,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service reading overrides from
// the process environment.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Catalog: domain.CatalogSettings{
			Path: s.getString(keyCatalogPath, defaults.Catalog.Path),
		},
		Search: domain.SearchSettings{
			DefaultLimit: s.getInt(keySearchLimit, defaults.Search.DefaultLimit),
			Ranker:       s.getRanker(defaults.Search.Ranker),
		},
		Lexical: domain.LexicalSettings{
			MaxFeatures: s.getInt(keyLexicalFeatures, defaults.Lexical.MaxFeatures),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(defaults.Embedding.Provider),
			Model:             s.configStore.GetString(keyEmbedModel), // Empty selects the provider default
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
		},
		VectorIndex: domain.VectorIndexSettings{
			Enabled:  s.getBool(keyVectorEnabled, defaults.VectorIndex.Enabled),
			Metric:   s.getMetric(defaults.VectorIndex.Metric),
			CacheDir: s.getString(keyVectorCacheDir, s.defaultCacheDir()),
		},
		Conversation: domain.ConversationSettings{
			HistorySize: s.getInt(keyConversationTurns, defaults.Conversation.HistorySize),
		},
	}

	s.applyEnv(settings)
	return settings, nil
}

// applyEnv overlays environment variables on file values.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if v := s.getenv(EnvCatalogPath); v != "" {
		settings.Catalog.Path = v
	}
	if v := s.getenv(EnvOpenAIAPIKey); v != "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = v
	}
	if v := s.getenv(EnvOllamaHost); v != "" && settings.Embedding.Provider == domain.AIProviderOllama {
		if !strings.Contains(v, "://") {
			v = "http://" + v
		}
		settings.Embedding.BaseURL = v
	}
}

// defaultCacheDir places the embedding cache next to the config file.
func (s *SettingsService) defaultCacheDir() string {
	path := s.configStore.Path()
	if !filepath.IsAbs(path) {
		return ""
	}
	return filepath.Join(filepath.Dir(path), "cache")
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyCatalogPath, settings.Catalog.Path},
		{keySearchLimit, settings.Search.DefaultLimit},
		{keySearchRanker, settings.Search.Ranker.String()},
		{keyLexicalFeatures, settings.Lexical.MaxFeatures},
		{keyVectorEnabled, settings.VectorIndex.Enabled},
		{keyVectorMetric, settings.VectorIndex.Metric.String()},
		{keyVectorCacheDir, settings.VectorIndex.CacheDir},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyConversationTurns, settings.Conversation.HistorySize},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return s.configStore.Save()
}

// Set parses, validates and persists a single key.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	var parsed any
	switch key {
	case keyCatalogPath, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey, keyVectorCacheDir:
		parsed = value

	case keySearchLimit:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > domain.MaxLimit {
			return fmt.Errorf("%s must be an integer between 1 and %d", key, domain.MaxLimit)
		}
		parsed = n

	case keyLexicalFeatures, keyConversationTurns:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive integer", key)
		}
		parsed = n

	case keyEmbedRPS:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%s must be a positive number", key)
		}
		parsed = f

	case keyVectorEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		parsed = b

	case keySearchRanker:
		if !domain.RankerPreference(value).IsValid() {
			return fmt.Errorf("invalid ranker: %s (expected auto, lexical or vector)", value)
		}
		parsed = value

	case keyVectorMetric:
		if !domain.VectorMetric(value).IsValid() {
			return fmt.Errorf("invalid metric: %s (expected cosine or l2)", value)
		}
		parsed = value

	case keyEmbedProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("invalid embedding provider: %s (expected ollama or openai)", value)
		}
		parsed = value

	default:
		return fmt.Errorf("unknown setting: %s", key)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return s.configStore.Save()
}

// Keys lists the settable keys in display order.
func (s *SettingsService) Keys() []string {
	return append([]string(nil), settingKeys...)
}

// Validate checks the current settings are coherent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Search.DefaultLimit < 1 || settings.Search.DefaultLimit > domain.MaxLimit {
		return fmt.Errorf("search.default_limit must be between 1 and %d", domain.MaxLimit)
	}
	if settings.Lexical.MaxFeatures < 1 {
		return fmt.Errorf("lexical.max_features must be positive")
	}
	if settings.Conversation.HistorySize < 1 {
		return fmt.Errorf("conversation.history_size must be positive")
	}

	// The vector ranker needs the index and a usable provider
	if settings.Search.Ranker == domain.RankerVector && !settings.VectorIndex.Enabled {
		return fmt.Errorf("ranker %q requires vector_index.enabled", settings.Search.Ranker.Description())
	}
	if settings.VectorIndex.Enabled && !settings.Embedding.IsConfigured() {
		return fmt.Errorf(
			"vector index requires embedding provider %q to be configured",
			settings.Embedding.Provider.Description(),
		)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
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
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getRanker(defaultVal domain.RankerPreference) domain.RankerPreference {
	ranker := domain.RankerPreference(s.configStore.GetString(keySearchRanker))
	if !ranker.IsValid() {
		return defaultVal
	}
	return ranker
}

func (s *SettingsService) getMetric(defaultVal domain.VectorMetric) domain.VectorMetric {
	metric := domain.VectorMetric(s.configStore.GetString(keyVectorMetric))
	if !metric.IsValid() {
		return defaultVal
	}
	return metric
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
