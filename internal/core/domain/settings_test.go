package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRankerPreference_IsValid tests all valid and invalid ranker preferences
func TestRankerPreference_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		pref     RankerPreference
		expected bool
	}{
		{"auto is valid", RankerAuto, true},
		{"lexical is valid", RankerLexical, true},
		{"vector is valid", RankerVector, true},
		{"empty string is invalid", RankerPreference(""), false},
		{"unknown is invalid", RankerPreference("bm25"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.pref.IsValid())
		})
	}
}

func TestRankerPreference_Description(t *testing.T) {
	assert.Contains(t, RankerLexical.Description(), "TF-IDF")
	assert.Equal(t, unknownDescription, RankerPreference("x").Description())
}

func TestVectorMetric_IsValid(t *testing.T) {
	assert.True(t, MetricCosine.IsValid())
	assert.True(t, MetricL2.IsValid())
	assert.False(t, VectorMetric("dot").IsValid())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk-test"}.IsConfigured())
	assert.False(t, EmbeddingSettings{}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, DefaultLimit, s.Search.DefaultLimit)
	assert.Equal(t, RankerAuto, s.Search.Ranker)
	assert.Equal(t, DefaultMaxFeatures, s.Lexical.MaxFeatures)
	assert.False(t, s.VectorIndex.Enabled)
	assert.Equal(t, MetricCosine, s.VectorIndex.Metric)
	assert.Equal(t, DefaultHistorySize, s.Conversation.HistorySize)
}
