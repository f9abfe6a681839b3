package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQueryRequest_Validate tests request validation rules
func TestQueryRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     QueryRequest
		wantErr bool
	}{
		{"default request", NewQueryRequest("brake pads"), false},
		{"zero limit is allowed", QueryRequest{Query: "x", Limit: 0}, false},
		{"max limit is allowed", QueryRequest{Query: "x", Limit: MaxLimit}, false},
		{"empty query", QueryRequest{Query: "", Limit: 10}, true},
		{"blank query", QueryRequest{Query: "   \t", Limit: 10}, true},
		{"negative limit", QueryRequest{Query: "x", Limit: -1}, true},
		{"limit above max", QueryRequest{Query: "x", Limit: MaxLimit + 1}, true},
		{"unknown strategy", QueryRequest{Query: "x", Limit: 1, Strategy: "fuzzy"}, true},
		{"known strategy", QueryRequest{Query: "x", Limit: 1, Strategy: StrategyCostOptimized}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsCallerError(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewQueryRequest_DefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NewQueryRequest("q").Limit)
}

func TestFilters_Merge(t *testing.T) {
	parsed := Filters{MaxCost: Float64(3000), MinStock: Int(1)}
	override := &Filters{MaxCost: Float64(1000), QualityLevel: QualityHigh}

	merged := parsed.Merge(override)

	require.NotNil(t, merged.MaxCost)
	assert.InDelta(t, 1000.0, *merged.MaxCost, 1e-9)
	require.NotNil(t, merged.MinStock)
	assert.Equal(t, 1, *merged.MinStock)
	assert.Equal(t, QualityHigh, merged.QualityLevel)
	assert.Nil(t, merged.MinCost)

	assert.Equal(t, parsed, parsed.Merge(nil))
}

func TestFilters_Flags(t *testing.T) {
	assert.True(t, Filters{}.IsZero())
	assert.False(t, Filters{}.HasCostFilter())
	assert.True(t, Filters{MinCost: Float64(1)}.HasCostFilter())
	assert.False(t, Filters{MinStock: Int(1)}.IsZero())
}

func TestNewGenerationContext(t *testing.T) {
	resp := &Response{
		Query: "brake pads",
		Understanding: QueryIntent{
			Intent:         IntentGeneralSearch,
			SearchStrategy: StrategyHybridSearch,
		},
		ResultCount: 7,
		Suggestions: []string{"Explore more parts in: BRAKES"},
	}
	for i := 0; i < 7; i++ {
		resp.Results = append(resp.Results, EnrichedResult{
			Part:        Part{FieldPartNumber: "BRK-00" + string(rune('0'+i)), FieldPartName: "Brake Pad"},
			CostNumeric: 100,
		})
	}

	gc := NewGenerationContext(resp)

	assert.Equal(t, "brake pads", gc.Query)
	assert.Equal(t, StrategyHybridSearch, gc.Strategy)
	assert.Equal(t, 7, gc.ResultCount)
	assert.Len(t, gc.TopResults, maxGenerationSnippets)
	assert.Equal(t, "BRK-000", gc.TopResults[0].PartNumber)
}
