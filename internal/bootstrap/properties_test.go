package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/testutil"
)

var propertyQueries = []string{
	"exact part number ENG-123-ABC",
	"BRK-001",
	"cheap brake components under ₹3000",
	"aluminum parts available in stock",
	"find parts similar to brake pads",
	"bosch spark plug",
	"compare radiator and water pump",
	"recommend the best shock absorber",
	"suspension parts over 5000",
	"list all exhaust parts",
	"steel gasket kit heavy duty",
	"timing belt",
	"premium ceramic brake disc under 8,000",
	"something that does not exist anywhere",
	"engine",
}

// systemCounts counts fixture records per system.
func systemCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range testutil.Records() {
		if sys := r.System(); sys != "" {
			counts[sys]++
		}
	}
	return counts
}

func TestProperties_ResponseShape(t *testing.T) {
	counts := systemCounts()

	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			for _, q := range propertyQueries {
				resp := query(t, e.Search, q, 10)

				assert.Equal(t, len(resp.Results), resp.ResultCount, q)
				assert.LessOrEqual(t, resp.ResultCount, 10, q)
				assert.LessOrEqual(t, len(resp.Suggestions), domain.MaxSuggestions, q)

				for i, r := range resp.Results {
					if i > 0 {
						assert.GreaterOrEqual(t, resp.Results[i-1].MatchScore, r.MatchScore, "%s: non-increasing scores", q)
					}
					assert.GreaterOrEqual(t, r.CostInsights.SavingsPotential, 0.0, q)
					if sys := r.System(); sys != "" {
						assert.Equal(t, counts[sys]-1, r.SimilarityContext.SimilarPartsInSystem, q)
					}
					if resp.Understanding.SearchStrategy == domain.StrategyVectorSimilarity {
						assert.GreaterOrEqual(t, r.MatchScore, 0.05, q)
						assert.LessOrEqual(t, r.MatchScore, 1.0, q)
					}
				}
			}
		})
	}
}

func TestProperties_Deterministic(t *testing.T) {
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			for _, q := range propertyQueries {
				a := query(t, e.Search, q, 10)
				b := query(t, e.Search, q, 10)
				a.SearchTimeMs, b.SearchTimeMs = 0, 0
				assert.Equal(t, a, b, q)
			}
		})
	}
}

func TestProperties_PartNumberRoundTrip(t *testing.T) {
	e := buildEngine(t, domain.DefaultAppSettings())

	for _, rec := range testutil.Records() {
		pn := rec.PartNumber()
		resp, err := e.Search.Query(context.Background(), domain.QueryRequest{Query: pn, Limit: 5})
		require.NoError(t, err, pn)
		require.NotEmpty(t, resp.Results, pn)

		first := resp.Results[0]
		assert.Equal(t, pn, first.PartNumber())
		assert.Equal(t, domain.MatchExact, first.MatchType, pn)
	}
}

func TestProperties_ZeroLimit(t *testing.T) {
	e := buildEngine(t, domain.DefaultAppSettings())

	for _, q := range propertyQueries {
		resp := query(t, e.Search, q, 0)
		assert.Empty(t, resp.Results, q)
		assert.Equal(t, 0, resp.ResultCount, q)
	}
}

func TestProperties_InvalidQueries(t *testing.T) {
	e := buildEngine(t, domain.DefaultAppSettings())

	for _, req := range []domain.QueryRequest{
		{Query: "", Limit: 5},
		{Query: "   ", Limit: 5},
		{Query: "brake", Limit: -1},
		{Query: "brake", Limit: 101},
	} {
		_, err := e.Search.Query(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrInvalidQuery, "%+v", req)
		assert.True(t, domain.IsCallerError(err))
	}
}

func TestProperties_FilterOverride(t *testing.T) {
	e := buildEngine(t, domain.DefaultAppSettings())

	resp, err := e.Search.Query(context.Background(), domain.QueryRequest{
		Query:   "brake disc",
		Limit:   10,
		Filters: &domain.Filters{MaxCost: domain.Float64(2000), MinStock: domain.Int(1)},
	})
	require.NoError(t, err)

	assert.Equal(t, 2000.0, *resp.Understanding.Filters.MaxCost)
	for _, r := range resp.Results {
		assert.Greater(t, r.CostNumeric, 0.0)
		assert.LessOrEqual(t, r.CostNumeric, 2000.0)
		assert.GreaterOrEqual(t, r.StockNumeric, 1)
	}
}
