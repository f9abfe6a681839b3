package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	response    *domain.Response
	answer      *domain.FollowUpAnswer
	suggestions []string
	metrics     *domain.QuickMetrics
	err         error

	mu       sync.Mutex
	requests []domain.QueryRequest
	created  int
}

func (m *mockSearchService) Query(_ context.Context, req domain.QueryRequest) (*domain.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockSearchService) Understand(_ context.Context, query string) domain.QueryIntent {
	return domain.QueryIntent{OriginalQuery: query}
}

func (m *mockSearchService) Suggest(_ context.Context, _ string, _ int) []string {
	return m.suggestions
}

func (m *mockSearchService) QuickMetrics(_ context.Context) (*domain.QuickMetrics, error) {
	return m.metrics, m.err
}

func (m *mockSearchService) NewConversation() driving.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
	return &mockConversation{id: fmt.Sprintf("conv-%d", m.created), search: m}
}

func (m *mockSearchService) lastRequest() domain.QueryRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// mockConversation is a mock implementation of driving.Conversation.
type mockConversation struct {
	id     string
	search *mockSearchService
	asked  []string
}

func (c *mockConversation) ID() string { return c.id }

func (c *mockConversation) Ask(ctx context.Context, req domain.QueryRequest) (*domain.Response, error) {
	c.asked = append(c.asked, req.Query)
	return c.search.Query(ctx, req)
}

func (c *mockConversation) Record(query string, _ domain.QueryIntent, _ []domain.EnrichedResult) {
	c.asked = append(c.asked, query)
}

func (c *mockConversation) FollowUp(_ context.Context, question string) (*domain.FollowUpAnswer, error) {
	if len(c.asked) == 0 {
		return &domain.FollowUpAnswer{Type: domain.FollowUpNoContext, Question: question}, nil
	}
	if c.search.err != nil {
		return nil, c.search.err
	}
	return c.search.answer, nil
}

func (c *mockConversation) IsFollowUp(_ string) bool { return false }

func (c *mockConversation) History() []domain.Turn { return nil }

func brakeResponse() *domain.Response {
	return &domain.Response{
		Query: "brake pads",
		Understanding: domain.QueryIntent{
			OriginalQuery:  "brake pads",
			Intent:         domain.IntentGeneralSearch,
			SearchStrategy: domain.StrategyVectorSimilarity,
		},
		Results: []domain.EnrichedResult{{
			Part: domain.Part{
				domain.FieldPartNumber: "BRK-001",
				domain.FieldPartName:   "Brake Pad Set",
				domain.FieldSystem:     "BRAKES",
			},
			CostNumeric:          2500,
			StockNumeric:         15,
			MatchType:            domain.MatchSimilarity,
			MatchScore:           0.82,
			MatchExplanation:     "Similar to your query (score 0.82)",
			SimilarityContext:    domain.SimilarityContext{System: "BRAKES", SimilarPartsInSystem: 4},
			CostInsights:         domain.CostInsights{Position: domain.CostBelowAverage, SavingsPotential: 300},
			AvailabilityInsights: domain.AvailabilityInsights{Level: domain.AvailabilityMedium, StockLevel: 15},
		}},
		ResultCount:  1,
		SearchTimeMs: 1.5,
		Suggestions:  []string{"Try 'BRAKES parts under ₹2000'"},
	}
}
