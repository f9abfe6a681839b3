package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
)

func candidateIndices(candidates []domain.Candidate) []int {
	out := make([]int, len(candidates))
	for i, c := range candidates {
		out[i] = c.Index
	}
	return out
}

func plan(query string, strategy domain.Strategy, limit int) retrievalPlan {
	return retrievalPlan{
		query:  query,
		intent: domain.QueryIntent{OriginalQuery: query, SearchStrategy: strategy},
		limit:  limit,
	}
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	e := newTestEngine(t)
	return NewDispatcher(e.records, e.index, e.lexical)
}

func TestDispatcher_ZeroLimit(t *testing.T) {
	d := NewDispatcher(newTestEngine(t).records, failingIndex{}, failingRanker{})

	got, err := d.Dispatch(context.Background(), plan("BRK-001", domain.StrategyHybridSearch, 0))

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDispatcher_UnknownStrategy(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), plan("brakes", domain.Strategy("telepathy"), 5))

	var ierr *domain.InternalError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, domain.CodeRetrievalFailed, ierr.Code)
}

func TestDispatcher_ExactMatch(t *testing.T) {
	d := newTestDispatcher(t)

	t.Run("full part number", func(t *testing.T) {
		p := plan("BRK-001", domain.StrategyExactMatch, 10)
		p.intent.Entities.PartNumbers = []string{"BRK-001"}

		got, err := d.Dispatch(context.Background(), p)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 0, got[0].Index)
		assert.Equal(t, domain.MatchExact, got[0].MatchType)
		assert.InDelta(t, domain.ScoreExact, got[0].Score, 1e-9)
	})

	t.Run("substring with filters", func(t *testing.T) {
		p := plan("BRK-00", domain.StrategyExactMatch, 10)
		p.intent.Entities.PartNumbers = []string{"BRK-00"}
		p.intent.Filters.MaxCost = domain.Float64(3000)

		got, err := d.Dispatch(context.Background(), p)

		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, candidateIndices(got))
	})

	t.Run("truncated to limit", func(t *testing.T) {
		p := plan("BRK-00", domain.StrategyExactMatch, 2)
		p.intent.Entities.PartNumbers = []string{"BRK-00"}

		got, err := d.Dispatch(context.Background(), p)

		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestDispatcher_FilteredSearch(t *testing.T) {
	d := newTestDispatcher(t)

	tests := []struct {
		name     string
		entities domain.Entities
		filters  domain.Filters
		expected []int
	}{
		{"system ordered by cost", domain.Entities{Systems: []string{"BRAKES"}}, domain.Filters{}, []int{1, 0, 2}},
		{"system and manufacturer", domain.Entities{Systems: []string{"ENGINE"}, Manufacturers: []string{"Bosch"}},
			domain.Filters{}, []int{3}},
		{"either manufacturer", domain.Entities{Manufacturers: []string{"ZF", "Mahle"}}, domain.Filters{}, []int{5, 4}},
		{"in stock only", domain.Entities{Systems: []string{"BRAKES"}}, domain.Filters{MinStock: domain.Int(1)},
			[]int{0, 2}},
		{"unknown cost last", domain.Entities{}, domain.Filters{}, []int{1, 0, 2, 3, 5, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := plan("parts", domain.StrategyFilteredSearch, 10)
			p.intent.Entities = tt.entities
			p.intent.Filters = tt.filters

			got, err := d.Dispatch(context.Background(), p)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, candidateIndices(got))
			for _, c := range got {
				assert.Equal(t, domain.MatchFiltered, c.MatchType)
			}
		})
	}
}

func TestDispatcher_CostOptimized(t *testing.T) {
	d := newTestDispatcher(t)

	t.Run("all terms must match", func(t *testing.T) {
		got, err := d.Dispatch(context.Background(), plan("brake pad", domain.StrategyCostOptimized, 10))

		require.NoError(t, err)
		assert.Equal(t, []int{1, 0}, candidateIndices(got))
		assert.Equal(t, domain.MatchCostOptimized, got[0].MatchType)
	})

	t.Run("falls back to any term", func(t *testing.T) {
		p := plan("brake pads under 2000", domain.StrategyCostOptimized, 10)
		p.intent.Filters.MaxCost = domain.Float64(2000)

		got, err := d.Dispatch(context.Background(), p)

		require.NoError(t, err)
		assert.Equal(t, []int{1}, candidateIndices(got))
	})

	t.Run("unknown cost sorts last", func(t *testing.T) {
		got, err := d.Dispatch(context.Background(), plan("engine", domain.StrategyCostOptimized, 10))

		require.NoError(t, err)
		assert.Equal(t, []int{3, 4}, candidateIndices(got))
	})
}

func TestDispatcher_VectorSimilarity(t *testing.T) {
	d := newTestDispatcher(t)

	t.Run("ranked by similarity", func(t *testing.T) {
		got, err := d.Dispatch(context.Background(), plan("shock absorber", domain.StrategyVectorSimilarity, 10))

		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, 5, got[0].Index)
		for _, c := range got {
			assert.Equal(t, domain.MatchSimilarity, c.MatchType)
			assert.GreaterOrEqual(t, c.Score, minQuerySimilarity)
			assert.LessOrEqual(t, c.Score, 1.0)
		}
	})

	t.Run("post-filtered", func(t *testing.T) {
		p := plan("brake pad", domain.StrategyVectorSimilarity, 10)
		p.intent.Filters.MinStock = domain.Int(1)

		got, err := d.Dispatch(context.Background(), p)

		require.NoError(t, err)
		assert.Contains(t, candidateIndices(got), 0)
		assert.NotContains(t, candidateIndices(got), 1)
	})
}

func TestDispatcher_Hybrid(t *testing.T) {
	d := newTestDispatcher(t)

	t.Run("free text backfilled without duplicates", func(t *testing.T) {
		got, err := d.Dispatch(context.Background(), plan("rubber mount", domain.StrategyHybridSearch, 10))

		require.NoError(t, err)
		assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5}, candidateIndices(got))
		for _, c := range got {
			if c.Index == 3 {
				assert.Equal(t, domain.MatchSimilarity, c.MatchType)
			}
		}
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
		}
	})

	t.Run("exact hits first", func(t *testing.T) {
		p := plan("BRK-003", domain.StrategyHybridSearch, 6)
		p.intent.Entities.PartNumbers = []string{"BRK-003"}

		got, err := d.Dispatch(context.Background(), p)

		require.NoError(t, err)
		require.Len(t, got, 6)
		assert.Equal(t, 2, got[0].Index)
		assert.Equal(t, domain.MatchExact, got[0].MatchType)
	})

	t.Run("respects limit", func(t *testing.T) {
		got, err := d.Dispatch(context.Background(), plan("rubber mount", domain.StrategyHybridSearch, 2))

		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestDispatcher_HybridSurvivesOneFailure(t *testing.T) {
	e := newTestEngine(t)
	d := NewDispatcher(e.records, e.index, failingRanker{})

	got, err := d.Dispatch(context.Background(), plan("rubber mount", domain.StrategyHybridSearch, 3))

	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, candidateIndices(got))
}

func TestDispatcher_HybridAllFailed(t *testing.T) {
	e := newTestEngine(t)
	d := NewDispatcher(e.records, failingIndex{e.index}, failingRanker{})

	_, err := d.Dispatch(context.Background(), plan("rubber mount", domain.StrategyHybridSearch, 3))

	var ierr *domain.InternalError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, domain.CodeRetrievalFailed, ierr.Code)
	assert.True(t, errors.Is(err, errIndexDown))
}

func TestDispatcher_SingleStrategyFailure(t *testing.T) {
	e := newTestEngine(t)
	d := NewDispatcher(e.records, failingIndex{e.index}, e.lexical)
	p := plan("BRK-001", domain.StrategyExactMatch, 5)
	p.intent.Entities.PartNumbers = []string{"BRK-001"}

	_, err := d.Dispatch(context.Background(), p)

	var ierr *domain.InternalError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, domain.CodeRetrievalFailed, ierr.Code)
	assert.NotContains(t, ierr.Error(), errIndexDown.Error())
}

func TestDispatcher_HybridInterrupted(t *testing.T) {
	d := newTestDispatcher(t)

	t.Run("past deadline", func(t *testing.T) {
		p := plan("rubber mount", domain.StrategyHybridSearch, 5)
		p.deadline = time.Now().Add(-time.Second)

		got, err := d.Dispatch(context.Background(), p)

		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		got, err := d.Dispatch(ctx, plan("rubber mount", domain.StrategyHybridSearch, 5))

		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("cancelled after similarity", func(t *testing.T) {
		e := newTestEngine(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		d := NewDispatcher(e.records, e.index, cancellingRanker{Ranker: e.lexical, cancel: cancel})

		got, err := d.Dispatch(ctx, plan("rubber mount", domain.StrategyHybridSearch, 5))

		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.LessOrEqual(t, len(got), 2)
		assert.Contains(t, candidateIndices(got), 3)
		for _, c := range got {
			assert.Equal(t, domain.MatchSimilarity, c.MatchType)
		}
	})
}

// cancellingRanker cancels the request once it has ranked.
type cancellingRanker struct {
	driven.Ranker
	cancel context.CancelFunc
}

func (r cancellingRanker) Rank(ctx context.Context, query string, k int, minScore float64) ([]domain.ScoredIndex, error) {
	defer r.cancel()
	return r.Ranker.Rank(ctx, query, k, minScore)
}
