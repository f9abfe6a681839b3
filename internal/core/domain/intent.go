package domain

import "time"

// Intent classifies what a query is asking for.
type Intent string

// Query intents, in classification priority order.
const (
	IntentExactSearch        Intent = "exact_search"
	IntentSimilaritySearch   Intent = "similarity_search"
	IntentComparison         Intent = "comparison"
	IntentRecommendation     Intent = "recommendation"
	IntentCostSearch         Intent = "cost_search"
	IntentAvailabilitySearch Intent = "availability_search"
	IntentListAll            Intent = "list_all"
	IntentGeneralSearch      Intent = "general_search"
)

// String returns the string representation.
func (i Intent) String() string {
	return string(i)
}

// Strategy is the retrieval mode the dispatcher executes.
type Strategy string

// Retrieval strategies.
const (
	StrategyExactMatch       Strategy = "exact_match"
	StrategyVectorSimilarity Strategy = "vector_similarity"
	StrategyFilteredSearch   Strategy = "filtered_search"
	StrategyCostOptimized    Strategy = "cost_optimized"
	StrategyHybridSearch     Strategy = "hybrid_search"
)

// IsValid returns true if the strategy is recognised.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyExactMatch, StrategyVectorSimilarity, StrategyFilteredSearch,
		StrategyCostOptimized, StrategyHybridSearch:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s Strategy) String() string {
	return string(s)
}

// QualityHigh is the only quality level the understander extracts.
const QualityHigh = "high"

// Entities holds the catalog entities recognised in a query.
type Entities struct {
	PartNumbers   []string `json:"part_numbers"`
	Systems       []string `json:"systems"`
	Manufacturers []string `json:"manufacturers"`
	Materials     []string `json:"materials"`
	Features      []string `json:"features"`
}

// Filters are the numeric and quality constraints extracted from a query.
// Nil fields are unset.
type Filters struct {
	MinCost      *float64 `json:"min_cost,omitempty"`
	MaxCost      *float64 `json:"max_cost,omitempty"`
	MinStock     *int     `json:"min_stock,omitempty"`
	QualityLevel string   `json:"quality_level,omitempty"`
}

// HasCostFilter returns true if a cost bound is set.
func (f Filters) HasCostFilter() bool {
	return f.MinCost != nil || f.MaxCost != nil
}

// IsZero returns true when no filter is set.
func (f Filters) IsZero() bool {
	return f.MinCost == nil && f.MaxCost == nil && f.MinStock == nil && f.QualityLevel == ""
}

// Merge returns f with every field set in override replacing the parsed one.
func (f Filters) Merge(override *Filters) Filters {
	if override == nil {
		return f
	}
	out := f
	if override.MinCost != nil {
		out.MinCost = override.MinCost
	}
	if override.MaxCost != nil {
		out.MaxCost = override.MaxCost
	}
	if override.MinStock != nil {
		out.MinStock = override.MinStock
	}
	if override.QualityLevel != "" {
		out.QualityLevel = override.QualityLevel
	}
	return out
}

// QueryIntent is the structured understanding of a raw query.
type QueryIntent struct {
	OriginalQuery  string    `json:"original_query"`
	Intent         Intent    `json:"intent"`
	Entities       Entities  `json:"entities"`
	Filters        Filters   `json:"filters"`
	SearchStrategy Strategy  `json:"search_strategy"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
