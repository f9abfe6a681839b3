// Package vector provides the dense-embedding ranker: catalog records are
// embedded once at startup and queries are matched through an ANN index.
package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
	"github.com/custodia-labs/partsearch/internal/logger"
)

// Ensure Ranker implements the interface.
var _ driven.Ranker = (*Ranker)(nil)

// Name is the ranker name reported in metrics.
const Name = "vector"

// DefaultBatchSize is the number of records embedded per provider call.
const DefaultBatchSize = 32

// Ranker scores records by embedding similarity.
type Ranker struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	cache    driven.EmbeddingCache

	// queries collapses concurrent embeddings of the same query text.
	queries singleflight.Group
}

type buildConfig struct {
	cache     driven.EmbeddingCache
	poolSize  int
	batchSize int
}

// Option configures Build.
type Option func(*buildConfig)

// WithCache reuses vectors across runs. Nil disables caching.
func WithCache(cache driven.EmbeddingCache) Option {
	return func(c *buildConfig) { c.cache = cache }
}

// WithPoolSize sets the number of concurrent embedding batches.
func WithPoolSize(n int) Option {
	return func(c *buildConfig) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithBatchSize sets the number of texts per provider call.
func WithBatchSize(n int) Option {
	return func(c *buildConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// Build embeds the searchable text of every record and adds the vectors to
// index in record order. Any embedding failure fails the whole build.
func Build(
	ctx context.Context,
	records []domain.Record,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	opts ...Option,
) (*Ranker, error) {
	if embedder == nil || index == nil {
		return nil, errors.New("vector: embedder and index are required")
	}

	cfg := buildConfig{
		poolSize:  max(1, runtime.NumCPU()/2),
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Ranker{
		embedder: embedder,
		index:    index,
		cache:    cfg.cache,
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.SearchableText
	}
	vectors, err := r.embedAll(ctx, texts, cfg)
	if err != nil {
		return nil, err
	}

	for i, vec := range vectors {
		if err := index.Add(ctx, records[i].Index, vec); err != nil {
			return nil, fmt.Errorf("vector: add record %d: %w", records[i].Index, err)
		}
	}
	logger.Debug("Vector index built: %d records, model=%s", len(vectors), embedder.ModelName())
	return r, nil
}

// embedAll fans batches out over a worker pool. Results land at their
// input positions so ordering is independent of scheduling.
func (r *Ranker) embedAll(ctx context.Context, texts []string, cfg buildConfig) ([][]float32, error) {
	pool, err := ants.NewPool(cfg.poolSize)
	if err != nil {
		return nil, fmt.Errorf("vector: create worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([][]float32, len(texts))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(texts); start += cfg.batchSize {
		end := min(start+cfg.batchSize, len(texts))
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := r.embedBatch(ctx, texts[start:end], out[start:end]); err != nil {
				fail(fmt.Errorf("vector: embed records %d-%d: %w", start, end-1, err))
			}
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("vector: submit batch: %w", submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// embedBatch fills dst with vectors for texts, consulting the cache first
// and embedding only the misses.
func (r *Ranker) embedBatch(ctx context.Context, texts []string, dst [][]float32) error {
	model := r.embedder.ModelName()

	var missing []int
	for i, text := range texts {
		if r.cache != nil {
			vec, ok, err := r.cache.Get(ctx, model, text)
			if err != nil {
				logger.WarnOnce("embedding-cache-get", "Embedding cache read failed: %v", err)
			} else if ok {
				dst[i] = vec
				continue
			}
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return nil
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}
	vectors, err := r.embedder.EmbedBatch(ctx, batch)
	if err != nil {
		return err
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("got %d embeddings for %d texts", len(vectors), len(batch))
	}

	for j, i := range missing {
		dst[i] = vectors[j]
		if r.cache != nil {
			if err := r.cache.Put(ctx, model, texts[i], vectors[j]); err != nil {
				logger.WarnOnce("embedding-cache-put", "Embedding cache write failed: %v", err)
			}
		}
	}
	return nil
}

// Name returns "vector".
func (r *Ranker) Name() string {
	return Name
}

// Len returns the number of indexed records.
func (r *Ranker) Len() int {
	return r.index.Len()
}

// Rank embeds the cleaned query and returns its nearest records.
func (r *Ranker) Rank(ctx context.Context, query string, k int, minScore float64) ([]domain.ScoredIndex, error) {
	text := domain.CleanText(query)
	if k <= 0 || text == "" {
		return []domain.ScoredIndex{}, nil
	}

	vec, err := r.embedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	hits, err := r.index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("vector: search: %w", err)
	}
	return scored(hits, k, minScore, -1), nil
}

// SimilarTo ranks records against the stored vector of record index.
func (r *Ranker) SimilarTo(ctx context.Context, index, k int, minScore float64) ([]domain.ScoredIndex, error) {
	vec, ok := r.index.Vector(index)
	if !ok {
		return nil, fmt.Errorf("record %d: %w", index, domain.ErrNotFound)
	}
	if k <= 0 {
		return []domain.ScoredIndex{}, nil
	}

	hits, err := r.index.Search(ctx, vec, k+1)
	if err != nil {
		return nil, fmt.Errorf("vector: search: %w", err)
	}
	return scored(hits, k, minScore, index), nil
}

// embedQuery embeds text once for all concurrent callers. The shared call
// is detached from the first caller's cancellation; each caller still
// returns as soon as its own context is done.
func (r *Ranker) embedQuery(ctx context.Context, text string) ([]float32, error) {
	ch := r.queries.DoChan(text, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		model := r.embedder.ModelName()
		if r.cache != nil {
			if vec, ok, err := r.cache.Get(shared, model, text); err == nil && ok {
				return vec, nil
			}
		}
		vec, err := r.embedder.Embed(shared, text)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			_ = r.cache.Put(shared, model, text, vec)
		}
		return vec, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("vector: embed query: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("vector: embed query: %w", res.Err)
		}
		return res.Val.([]float32), nil
	}
}

// scored converts index hits, already ordered by similarity, dropping
// exclude, non-positive scores and scores below minScore.
func scored(hits []driven.VectorHit, k int, minScore float64, exclude int) []domain.ScoredIndex {
	out := make([]domain.ScoredIndex, 0, min(k, len(hits)))
	for _, h := range hits {
		if len(out) == k {
			break
		}
		if h.ID == exclude || h.Similarity <= 0 || h.Similarity < minScore {
			continue
		}
		out = append(out, domain.ScoredIndex{Index: h.ID, Score: math.Min(h.Similarity, 1)})
	}
	return out
}
