package domain

// MatchType records which retrieval mode produced a result.
type MatchType string

// Match types, one per strategy family.
const (
	MatchExact         MatchType = "exact"
	MatchSimilarity    MatchType = "similarity"
	MatchFiltered      MatchType = "filtered"
	MatchCostOptimized MatchType = "cost_optimized"
)

// Fixed scores for strategies that do not rank.
const (
	ScoreExact         = 1.0
	ScoreFiltered      = 0.8
	ScoreCostOptimized = 0.7
)

// ScoredIndex is a ranker hit: a record position and its similarity.
type ScoredIndex struct {
	Index int
	Score float64
}

// Candidate is an unenriched retrieval result.
type Candidate struct {
	Index     int
	Score     float64
	MatchType MatchType
}

// CostPosition places a cost relative to its system average.
type CostPosition string

// Cost positions.
const (
	CostBelowAverage CostPosition = "below_average"
	CostAverage      CostPosition = "average"
	CostAboveAverage CostPosition = "above_average"
	CostUnknown      CostPosition = "unknown"
)

// AvailabilityLevel buckets stock levels.
type AvailabilityLevel string

// Availability buckets.
const (
	AvailabilityHigh       AvailabilityLevel = "high"
	AvailabilityMedium     AvailabilityLevel = "medium"
	AvailabilityLow        AvailabilityLevel = "low"
	AvailabilityOutOfStock AvailabilityLevel = "out_of_stock"
)

// AvailabilityFor returns the bucket for a stock level:
// above 50 high, 11 to 50 medium, 1 to 10 low, otherwise out of stock.
func AvailabilityFor(stock int) AvailabilityLevel {
	switch {
	case stock > 50:
		return AvailabilityHigh
	case stock > 10:
		return AvailabilityMedium
	case stock > 0:
		return AvailabilityLow
	default:
		return AvailabilityOutOfStock
	}
}

// CostRange is a min/max pair.
type CostRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CostInsights compares a part's cost with its system.
type CostInsights struct {
	Position         CostPosition `json:"position"`
	SystemAvgCost    float64      `json:"system_avg_cost"`
	SystemCostRange  CostRange    `json:"system_cost_range"`
	SavingsPotential float64      `json:"savings_potential"`
}

// AvailabilityInsights describes stock.
type AvailabilityInsights struct {
	Level      AvailabilityLevel `json:"level"`
	StockLevel int               `json:"stock_level"`
}

// SimilarityContext counts related parts.
type SimilarityContext struct {
	System               string `json:"system,omitempty"`
	SimilarPartsInSystem int    `json:"similar_parts_in_system"`
}

// EnrichedResult is a part record with its annotations.
type EnrichedResult struct {
	Index                int                  `json:"-"`
	Part                 Part                 `json:"part"`
	CostNumeric          float64              `json:"cost_numeric"`
	StockNumeric         int                  `json:"stock_numeric"`
	MatchType            MatchType            `json:"match_type"`
	MatchScore           float64              `json:"match_score"`
	MatchExplanation     string               `json:"match_explanation"`
	SimilarityContext    SimilarityContext    `json:"similarity_context"`
	CostInsights         CostInsights         `json:"cost_insights"`
	AvailabilityInsights AvailabilityInsights `json:"availability_insights"`
}

// PartNumber returns the result's part number.
func (r EnrichedResult) PartNumber() string { return r.Part.String(FieldPartNumber) }

// PartName returns the result's part name.
func (r EnrichedResult) PartName() string { return r.Part.String(FieldPartName) }

// System returns the result's system.
func (r EnrichedResult) System() string { return r.Part.String(FieldSystem) }
