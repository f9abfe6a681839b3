// Package bootstrap assembles the search engine from settings: it loads the
// catalog, builds every index and picks the similarity ranker.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/custodia-labs/partsearch/internal/adapters/driven/embedding"
	"github.com/custodia-labs/partsearch/internal/adapters/driven/lexical/tfidf"
	prommetrics "github.com/custodia-labs/partsearch/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/partsearch/internal/adapters/driven/storage/badger"
	"github.com/custodia-labs/partsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/partsearch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/partsearch/internal/adapters/driven/vector"
	"github.com/custodia-labs/partsearch/internal/adapters/driven/vector/hnsw"
	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
	"github.com/custodia-labs/partsearch/internal/core/services"
	"github.com/custodia-labs/partsearch/internal/logger"
)

// vectorUnavailableKey deduplicates the degradation warning.
const vectorUnavailableKey = "vector-index-unavailable"

// Engine is a ready search service and the resources behind it.
type Engine struct {
	Search  *services.SearchService
	Metrics *prommetrics.QueryMetrics

	// Ranker is the name of the similarity ranker in use.
	Ranker string
	// VectorAvailable reports whether the vector ranker initialised.
	VectorAvailable bool

	closers []io.Closer
}

// Close releases every index, cache and provider connection.
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

type buildOptions struct {
	embedder driven.EmbeddingService
	cache    driven.EmbeddingCache
	clock    func() time.Time
}

// Option customises Build.
type Option func(*buildOptions)

// WithEmbedder replaces the provider selected by settings. The engine
// does not close an injected embedder.
func WithEmbedder(e driven.EmbeddingService) Option {
	return func(o *buildOptions) { o.embedder = e }
}

// WithEmbeddingCache replaces the on-disk cache. The engine does not close
// an injected cache.
func WithEmbeddingCache(c driven.EmbeddingCache) Option {
	return func(o *buildOptions) { o.cache = c }
}

// WithClock fixes processed_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *buildOptions) { o.clock = now }
}

// Build loads the catalog and assembles the engine. A vector index that
// fails to initialise degrades to the lexical ranker with one warning.
func Build(ctx context.Context, settings domain.AppSettings, loader driven.CatalogLoader, opts ...Option) (*Engine, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger.Section("Startup")
	start := time.Now()

	parts, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", loader.Source(), err)
	}
	records, err := memory.NewRecordStore(parts)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", loader.Source(), err)
	}
	logger.Debug("Loaded %d records from %s", records.Len(), loader.Source())

	e := &Engine{}
	structured, err := sqlite.NewStore(ctx, records.All())
	if err != nil {
		return nil, fmt.Errorf("structured index: %w", err)
	}
	e.closers = append(e.closers, structured)

	lexical := tfidf.NewIndex(records.All(), tfidf.WithMaxFeatures(settings.Lexical.MaxFeatures))
	logger.Debug("Lexical index: %d records, %d features", lexical.Len(), lexical.VocabularySize())

	var ranker driven.Ranker = lexical
	if vec := e.selectVector(ctx, settings, records.All(), o); vec != nil {
		ranker = vec
		e.VectorAvailable = true
	}
	e.Ranker = ranker.Name()

	e.Metrics = prommetrics.New()
	svcOpts := []services.Option{
		services.WithMetrics(e.Metrics),
		services.WithVectorAvailable(e.VectorAvailable),
		services.WithHistorySize(settings.Conversation.HistorySize),
	}
	if o.clock != nil {
		svcOpts = append(svcOpts, services.WithClock(o.clock))
	}

	e.Search, err = services.NewSearchService(ctx, records, structured, ranker, lexical, svcOpts...)
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	logger.Debug("Engine ready in %s: ranker=%s", time.Since(start).Round(time.Millisecond), e.Ranker)
	return e, nil
}

// selectVector returns the vector ranker when settings ask for one and it
// initialises, else nil.
func (e *Engine) selectVector(
	ctx context.Context, settings domain.AppSettings, records []domain.Record, o buildOptions,
) driven.Ranker {
	switch {
	case settings.Search.Ranker == domain.RankerLexical:
		return nil
	case !settings.VectorIndex.Enabled:
		if settings.Search.Ranker == domain.RankerVector {
			logger.WarnOnce(vectorUnavailableKey,
				"Vector ranker requested but vector_index.enabled is false; using lexical ranker")
		}
		return nil
	}

	ranker, err := e.buildVector(ctx, settings, records, o)
	if err != nil {
		logger.WarnOnce(vectorUnavailableKey, "Vector index unavailable, using lexical ranker: %v",
			fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err))
		return nil
	}
	return ranker
}

func (e *Engine) buildVector(
	ctx context.Context, settings domain.AppSettings, records []domain.Record, o buildOptions,
) (driven.Ranker, error) {
	embedder := o.embedder
	if embedder == nil {
		svc, err := embedding.NewValidated(ctx, settings.Embedding)
		if err != nil {
			return nil, err
		}
		embedder = svc
		e.closers = append(e.closers, svc)
	}

	cache := o.cache
	if cache == nil && settings.VectorIndex.CacheDir != "" {
		c, err := badger.Open(settings.VectorIndex.CacheDir)
		if err != nil {
			logger.Warn("Embedding cache disabled: %v", err)
		} else {
			cache = c
			e.closers = append(e.closers, c)
		}
	}

	index := hnsw.NewIndex(hnsw.DefaultConfig(settings.VectorIndex.Metric))
	ranker, err := vector.Build(ctx, records, embedder, index, vector.WithCache(cache))
	if err != nil {
		_ = index.Close()
		return nil, err
	}
	e.closers = append(e.closers, index)
	return ranker, nil
}
