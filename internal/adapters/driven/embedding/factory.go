// Package embedding creates embedding service adapters from settings.
package embedding

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/partsearch/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/partsearch/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// New creates the rate-limited embedding service selected by settings.
// It does not contact the provider.
func New(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: provider %q is not configured", domain.ErrEmbeddingUnavailable, settings.Provider)
	}

	var svc driven.EmbeddingService
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOpenAI:
		openai, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		svc = openai

	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", domain.ErrEmbeddingUnavailable, settings.Provider)
	}

	return NewRateLimited(svc, settings.RequestsPerSecond), nil
}

// NewValidated creates the service and checks connectivity. The service is
// closed again if the provider cannot be reached.
func NewValidated(ctx context.Context, settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := New(settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'partsearch settings' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}
