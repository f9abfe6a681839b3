package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"settings", "show"})

	err := rootCmd.Execute()

	assert.ErrorIs(t, err, errSettingsNotConfigured)
}

func TestSettingsShow(t *testing.T) {
	_, settings, cleanup := setupTestServices()
	defer cleanup()
	settings.settings.Embedding.Provider = domain.AIProviderOpenAI
	settings.settings.Embedding.APIKey = "sk-1234567890abcdef"

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings"})

	require.NoError(t, rootCmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "[Catalog]")
	assert.Contains(t, out, "Path: (not set)")
	assert.Contains(t, out, "Default limit: 10")
	assert.Contains(t, out, "Model: text-embedding-3-small (default)")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "Enabled: no")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShow_InvalidConfiguration(t *testing.T) {
	_, settings, cleanup := setupTestServices()
	defer cleanup()
	settings.invalid = errors.New("vector index requires embedding provider")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "show"})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Warning: vector index requires embedding provider")
}

func TestSettingsSet(t *testing.T) {
	_, settings, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "set", "catalog.path", "./parts.csv"})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "./parts.csv", settings.values["catalog.path"])
	assert.Contains(t, buf.String(), "Set catalog.path to ./parts.csv")
}

func TestSettingsSet_MasksAPIKey(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "set", "embedding.api_key", "sk-1234567890abcdef"})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "sk-1...cdef")
	assert.NotContains(t, buf.String(), "sk-1234567890abcdef")
}

func TestSettingsSet_UnknownKey(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"settings", "set", "nope", "1"})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown setting: nope")
}

func TestSettingsKeys(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "keys"})

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(buf.String(), "catalog.path\nsearch.default_limit\n"))
}

func TestSettingsEmbedding_OpenAI(t *testing.T) {
	_, settings, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("2\n\n\nsk-1234567890abcdef\n\n"))
	rootCmd.SetArgs([]string{"settings", "embedding"})

	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "openai", settings.values["embedding.provider"])
	assert.Equal(t, "text-embedding-3-small", settings.values["embedding.model"])
	assert.Equal(t, "", settings.values["embedding.base_url"])
	assert.Equal(t, "sk-1234567890abcdef", settings.values["embedding.api_key"])
	assert.Equal(t, "true", settings.values["vector_index.enabled"])
	assert.Contains(t, buf.String(), "Embedding provider configured: OpenAI (cloud) (text-embedding-3-small)")
}

func TestSettingsEmbedding_OllamaDisabled(t *testing.T) {
	_, settings, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetIn(strings.NewReader("1\nmxbai-embed-large\nhttp://gpu:11434\nn\n"))
	rootCmd.SetArgs([]string{"settings", "embedding"})

	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "ollama", settings.values["embedding.provider"])
	assert.Equal(t, "mxbai-embed-large", settings.values["embedding.model"])
	assert.Equal(t, "http://gpu:11434", settings.values["embedding.base_url"])
	assert.Equal(t, "false", settings.values["vector_index.enabled"])
	_, hasKey := settings.values["embedding.api_key"]
	assert.False(t, hasKey)
}

func TestSettingsEmbedding_MissingAPIKey(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader("2\n\n\n\n"))
	rootCmd.SetArgs([]string{"settings", "embedding"})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}
