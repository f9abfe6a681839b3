package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// queryTimeout is the soft deadline passed to hybrid retrieval.
const queryTimeout = 10 * time.Second

// QueryInput is the input schema for the parts_query tool.
type QueryInput struct {
	Query          string   `json:"query" jsonschema:"natural-language question about parts, e.g. 'brake pads under 3000'"`
	Limit          *int     `json:"limit,omitempty" jsonschema:"maximum number of results, 0 to 100 (default 10)"`
	ConversationID string   `json:"conversation_id,omitempty" jsonschema:"conversation to record this query in; a new one is started when empty"`
	MinCost        *float64 `json:"min_cost,omitempty" jsonschema:"minimum cost, replaces any minimum parsed from the query"`
	MaxCost        *float64 `json:"max_cost,omitempty" jsonschema:"maximum cost, replaces any maximum parsed from the query"`
	MinStock       *int     `json:"min_stock,omitempty" jsonschema:"minimum stock level"`
	Strategy       string   `json:"strategy,omitempty" jsonschema:"force a retrieval strategy: exact_match, vector_similarity, filtered_search, cost_optimized or hybrid_search"`
}

// QueryOutput is the output schema for the parts_query tool.
type QueryOutput struct {
	ConversationID string                   `json:"conversation_id"`
	Query          string                   `json:"query"`
	Intent         string                   `json:"intent"`
	Strategy       string                   `json:"strategy"`
	Filters        domain.Filters           `json:"filters"`
	ResultCount    int                      `json:"result_count"`
	SearchTimeMs   float64                  `json:"search_time_ms"`
	Results        []ResultOutput           `json:"results"`
	Suggestions    []string                 `json:"suggestions"`
	Context        domain.GenerationContext `json:"context"`
}

// ResultOutput is a single enriched part.
type ResultOutput struct {
	PartNumber           string         `json:"part_number"`
	PartName             string         `json:"part_name"`
	System               string         `json:"system,omitempty"`
	Part                 map[string]any `json:"part"`
	Cost                 float64        `json:"cost"`
	Stock                int            `json:"stock"`
	MatchType            string         `json:"match_type"`
	MatchScore           float64        `json:"match_score"`
	Explanation          string         `json:"explanation"`
	CostPosition         string         `json:"cost_position"`
	SavingsPotential     float64        `json:"savings_potential"`
	Availability         string         `json:"availability"`
	SimilarPartsInSystem int            `json:"similar_parts_in_system"`
}

// FollowUpInput is the input schema for the parts_followup tool.
type FollowUpInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"conversation returned by parts_query"`
	Question       string `json:"question" jsonschema:"refinement of the last results, e.g. 'anything cheaper?'"`
}

// FollowUpOutput is the output schema for the parts_followup tool.
type FollowUpOutput struct {
	ConversationID string              `json:"conversation_id"`
	Type           string              `json:"type"`
	Response       string              `json:"response"`
	Alternatives   []AlternativeOutput `json:"alternatives"`
	Results        []ResultOutput      `json:"results"`
	Diff           *domain.Comparison  `json:"diff,omitempty"`
}

// AlternativeOutput is a cheaper part replacing one of the last results.
type AlternativeOutput struct {
	PartNumber     string         `json:"part_number"`
	Part           map[string]any `json:"part"`
	Cost           float64        `json:"cost"`
	Stock          int            `json:"stock"`
	Savings        float64        `json:"savings"`
	AlternativeFor string         `json:"alternative_for"`
}

// SuggestInput is the input schema for the parts_suggest tool.
type SuggestInput struct {
	Prefix string `json:"prefix" jsonschema:"partial word typed so far"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of suggestions (default 5)"`
}

// SuggestOutput is the output schema for the parts_suggest tool.
type SuggestOutput struct {
	Suggestions []string `json:"suggestions"`
}

// MetricsInput is the (empty) input schema for the parts_metrics tool.
type MetricsInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "parts_query",
		Description: "Search the parts catalog with a natural-language question",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "parts_followup",
		Description: "Refine the last results of a conversation: cheaper, similar, in stock or compare",
	}, s.handleFollowUp)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "parts_suggest",
		Description: "Complete a partially typed catalog term",
	}, s.handleSuggest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "parts_metrics",
		Description: "Summarise the loaded catalog and the active ranker",
	}, s.handleMetrics)
}

// handleQuery handles the parts_query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	req := domain.QueryRequest{
		Query:    input.Query,
		Limit:    domain.DefaultLimit,
		Strategy: domain.Strategy(input.Strategy),
		Deadline: time.Now().Add(queryTimeout),
	}
	if input.Limit != nil {
		req.Limit = *input.Limit
	}
	overrides := domain.Filters{MinCost: input.MinCost, MaxCost: input.MaxCost, MinStock: input.MinStock}
	if !overrides.IsZero() {
		req.Filters = &overrides
	}

	conv := s.resolve(input.ConversationID)
	resp, err := conv.Ask(ctx, req)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	gc := domain.NewGenerationContext(resp)
	if gc.TopResults == nil {
		gc.TopResults = []domain.GenerationSnippet{}
	}
	if gc.Suggestions == nil {
		gc.Suggestions = []string{}
	}

	return nil, QueryOutput{
		ConversationID: conv.ID(),
		Query:          resp.Query,
		Intent:         resp.Understanding.Intent.String(),
		Strategy:       resp.Understanding.SearchStrategy.String(),
		Filters:        resp.Understanding.Filters,
		ResultCount:    resp.ResultCount,
		SearchTimeMs:   resp.SearchTimeMs,
		Results:        toResultOutputs(resp.Results),
		Suggestions:    gc.Suggestions,
		Context:        gc,
	}, nil
}

// handleFollowUp handles the parts_followup tool invocation.
// An unknown conversation answers with no context rather than failing.
func (s *Server) handleFollowUp(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FollowUpInput,
) (*mcp.CallToolResult, FollowUpOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, FollowUpOutput{}, ErrMissingQuestion
	}

	conv := s.resolve(input.ConversationID)
	answer, err := conv.FollowUp(ctx, input.Question)
	if err != nil {
		return nil, FollowUpOutput{}, err
	}

	output := FollowUpOutput{
		ConversationID: conv.ID(),
		Type:           string(answer.Type),
		Response:       answer.Response,
		Alternatives:   make([]AlternativeOutput, len(answer.Alternatives)),
		Results:        toResultOutputs(answer.Results),
		Diff:           answer.Diff,
	}
	for i, alt := range answer.Alternatives {
		output.Alternatives[i] = AlternativeOutput{
			PartNumber:     alt.PartNumber(),
			Part:           alt.Part,
			Cost:           alt.CostNumeric,
			Stock:          alt.StockNumeric,
			Savings:        alt.Savings,
			AlternativeFor: alt.AlternativeFor,
		}
	}
	return nil, output, nil
}

// handleSuggest handles the parts_suggest tool invocation.
func (s *Server) handleSuggest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SuggestInput,
) (*mcp.CallToolResult, SuggestOutput, error) {
	suggestions := s.ports.Search.Suggest(ctx, input.Prefix, input.Limit)
	if suggestions == nil {
		suggestions = []string{}
	}
	return nil, SuggestOutput{Suggestions: suggestions}, nil
}

// handleMetrics handles the parts_metrics tool invocation.
func (s *Server) handleMetrics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ MetricsInput,
) (*mcp.CallToolResult, domain.QuickMetrics, error) {
	m, err := s.ports.Search.QuickMetrics(ctx)
	if err != nil {
		return nil, domain.QuickMetrics{}, err
	}
	return nil, *m, nil
}

func toResultOutputs(results []domain.EnrichedResult) []ResultOutput {
	out := make([]ResultOutput, len(results))
	for i := range results {
		r := &results[i]
		out[i] = ResultOutput{
			PartNumber:           r.PartNumber(),
			PartName:             r.PartName(),
			System:               r.System(),
			Part:                 r.Part,
			Cost:                 r.CostNumeric,
			Stock:                r.StockNumeric,
			MatchType:            string(r.MatchType),
			MatchScore:           r.MatchScore,
			Explanation:          r.MatchExplanation,
			CostPosition:         string(r.CostInsights.Position),
			SavingsPotential:     r.CostInsights.SavingsPotential,
			Availability:         string(r.AvailabilityInsights.Level),
			SimilarPartsInSystem: r.SimilarityContext.SimilarPartsInSystem,
		}
	}
	return out
}
