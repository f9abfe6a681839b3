package domain

const unknownDescription = "Unknown"

// RankerPreference selects which ranker backs similarity retrieval.
type RankerPreference string

// Available ranker preferences.
const (
	// RankerAuto uses the vector ranker when it initialised, else lexical.
	RankerAuto RankerPreference = "auto"

	// RankerLexical always uses the TF-IDF ranker.
	RankerLexical RankerPreference = "lexical"

	// RankerVector prefers the vector ranker; it still degrades to lexical.
	RankerVector RankerPreference = "vector"
)

// IsValid returns true if the preference is recognised.
func (p RankerPreference) IsValid() bool {
	switch p {
	case RankerAuto, RankerLexical, RankerVector:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p RankerPreference) String() string {
	return string(p)
}

// Description returns a human-readable description of the preference.
func (p RankerPreference) Description() string {
	switch p {
	case RankerAuto:
		return "Auto (vector when available, else lexical)"
	case RankerLexical:
		return "Lexical (TF-IDF)"
	case RankerVector:
		return "Vector (dense embeddings)"
	default:
		return unknownDescription
	}
}

// VectorMetric is the distance used by the vector index.
type VectorMetric string

// Available metrics.
const (
	// MetricCosine reports raw cosine similarity.
	MetricCosine VectorMetric = "cosine"

	// MetricL2 reports 1 - L2/2 over unit vectors.
	MetricL2 VectorMetric = "l2"
)

// IsValid returns true if the metric is recognised.
func (m VectorMetric) IsValid() bool {
	return m == MetricCosine || m == MetricL2
}

// String returns the string representation.
func (m VectorMetric) String() string {
	return string(m)
}

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
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
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders returns the supported embedding providers.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns the default model of each provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// CatalogSettings locates the catalog.
type CatalogSettings struct {
	// Path is the catalog file (json, jsonl, csv or yaml).
	Path string
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// DefaultLimit is used by driving adapters when no limit is given.
	DefaultLimit int

	// Ranker selects the similarity ranker.
	Ranker RankerPreference
}

// LexicalSettings configures the TF-IDF index.
type LexicalSettings struct {
	// MaxFeatures caps the vocabulary size.
	MaxFeatures int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// RequestsPerSecond throttles calls to the provider.
	RequestsPerSecond float64
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

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Enabled gates the vector index feature.
	Enabled bool

	// Metric is the similarity metric.
	Metric VectorMetric

	// CacheDir holds the embedding cache. Empty disables on-disk caching.
	CacheDir string
}

// ConversationSettings configures conversation memory.
type ConversationSettings struct {
	// HistorySize bounds the rolling history.
	HistorySize int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Catalog      CatalogSettings
	Search       SearchSettings
	Lexical      LexicalSettings
	Embedding    EmbeddingSettings
	VectorIndex  VectorIndexSettings
	Conversation ConversationSettings
}

// Default setting values.
const (
	DefaultMaxFeatures       = 5000
	DefaultHistorySize       = 10
	DefaultRequestsPerSecond = 20
)

// DefaultAppSettings returns settings with sensible defaults.
// The vector index is disabled by default; the lexical ranker always works.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			DefaultLimit: DefaultLimit,
			Ranker:       RankerAuto,
		},
		Lexical: LexicalSettings{
			MaxFeatures: DefaultMaxFeatures,
		},
		Embedding: EmbeddingSettings{
			Provider:          AIProviderOllama,
			RequestsPerSecond: DefaultRequestsPerSecond,
		},
		VectorIndex: VectorIndexSettings{
			Enabled: false,
			Metric:  MetricCosine,
		},
		Conversation: ConversationSettings{
			HistorySize: DefaultHistorySize,
		},
	}
}
