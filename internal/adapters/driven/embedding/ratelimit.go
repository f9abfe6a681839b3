package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
)

// Ensure RateLimited implements the interface.
var _ driven.EmbeddingService = (*RateLimited)(nil)

// RateLimited throttles calls to an embedding provider. Each request,
// batched or not, consumes one token.
type RateLimited struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// NewRateLimited wraps svc allowing rps requests per second with a burst
// of one second's worth. A non-positive rps disables throttling.
func NewRateLimited(svc driven.EmbeddingService, rps float64) *RateLimited {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(rps))
	}
	return &RateLimited{
		EmbeddingService: svc,
		limiter:          rate.NewLimiter(limit, burst),
	}
}

// Embed waits for a token, then embeds text.
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for a token, then embeds texts in one call.
func (r *RateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.EmbeddingService.EmbedBatch(ctx, texts)
}

func (r *RateLimited) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}
