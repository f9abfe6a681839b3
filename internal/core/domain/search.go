package domain

import (
	"fmt"
	"strings"
	"time"
)

// Query limits.
const (
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxSuggestions caps response-level suggestions.
	MaxSuggestions = 3
)

// QueryRequest is the input of the primary query operation.
type QueryRequest struct {
	// Query is the free-text query. It must not be blank.
	Query string

	// Limit is the maximum number of results, in [0, MaxLimit].
	// A zero limit returns no results without touching any index.
	Limit int

	// Filters optionally overrides the filters parsed from the query.
	// Set fields replace parsed ones.
	Filters *Filters

	// Strategy optionally replaces rule-based strategy selection.
	Strategy Strategy

	// Deadline is a soft deadline honoured between hybrid sub-queries.
	Deadline time.Time
}

// NewQueryRequest returns a request for query with the default limit.
func NewQueryRequest(query string) QueryRequest {
	return QueryRequest{Query: query, Limit: DefaultLimit}
}

// Validate checks the request is well formed.
func (r QueryRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("%w: query must not be empty", ErrInvalidQuery)
	}
	if r.Limit < 0 || r.Limit > MaxLimit {
		return fmt.Errorf("%w: limit %d outside [0, %d]", ErrInvalidQuery, r.Limit, MaxLimit)
	}
	if r.Strategy != "" && !r.Strategy.IsValid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidQuery, r.Strategy)
	}
	return nil
}

// Response is the output of the primary query operation.
type Response struct {
	Query         string           `json:"query"`
	Understanding QueryIntent      `json:"understanding"`
	Results       []EnrichedResult `json:"results"`
	ResultCount   int              `json:"result_count"`
	SearchTimeMs  float64          `json:"search_time_ms"`
	Suggestions   []string         `json:"suggestions"`
}

// QuickMetrics summarises the loaded catalog and the active ranker.
type QuickMetrics struct {
	TotalParts           int     `json:"total_parts"`
	Systems              int     `json:"systems"`
	Manufacturers        int     `json:"manufacturers"`
	AverageCost          float64 `json:"average_cost"`
	LowStockParts        int     `json:"low_stock_parts"`
	Ranker               string  `json:"ranker"`
	VectorIndexAvailable bool    `json:"vector_index_available"`
	CatalogHash          string  `json:"catalog_hash"`
}

// LowStockThreshold is the upper bound of the quick-metrics low stock count.
const LowStockThreshold = 5

// GenerationContext is the structured summary of a response handed to an
// external response generator.
type GenerationContext struct {
	Query       string              `json:"query"`
	Intent      Intent              `json:"intent"`
	Strategy    Strategy            `json:"strategy"`
	Filters     Filters             `json:"filters"`
	ResultCount int                 `json:"result_count"`
	TopResults  []GenerationSnippet `json:"top_results"`
	Suggestions []string            `json:"suggestions"`
}

// GenerationSnippet is one result as seen by a response generator.
type GenerationSnippet struct {
	PartNumber   string            `json:"part_number"`
	PartName     string            `json:"part_name"`
	System       string            `json:"system,omitempty"`
	Manufacturer string            `json:"manufacturer,omitempty"`
	Cost         float64           `json:"cost"`
	Stock        int               `json:"stock"`
	Availability AvailabilityLevel `json:"availability"`
	CostPosition CostPosition      `json:"cost_position"`
	Explanation  string            `json:"explanation"`
}

// maxGenerationSnippets bounds the context size.
const maxGenerationSnippets = 5

// NewGenerationContext condenses resp for a response generator.
func NewGenerationContext(resp *Response) GenerationContext {
	gc := GenerationContext{
		Query:       resp.Query,
		Intent:      resp.Understanding.Intent,
		Strategy:    resp.Understanding.SearchStrategy,
		Filters:     resp.Understanding.Filters,
		ResultCount: resp.ResultCount,
		Suggestions: resp.Suggestions,
	}
	for i := range resp.Results {
		if i == maxGenerationSnippets {
			break
		}
		r := resp.Results[i]
		gc.TopResults = append(gc.TopResults, GenerationSnippet{
			PartNumber:   r.PartNumber(),
			PartName:     r.PartName(),
			System:       r.System(),
			Manufacturer: r.Part.String(FieldManufacturer),
			Cost:         r.CostNumeric,
			Stock:        r.StockNumeric,
			Availability: r.AvailabilityInsights.Level,
			CostPosition: r.CostInsights.Position,
			Explanation:  r.MatchExplanation,
		})
	}
	return gc
}
