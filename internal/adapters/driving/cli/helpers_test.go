package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driving"
)

// mockSearchService implements driving.SearchService for CLI tests.
type mockSearchService struct {
	requests []domain.QueryRequest
	queryErr error
}

func (m *mockSearchService) Query(_ context.Context, req domain.QueryRequest) (*domain.Response, error) {
	m.requests = append(m.requests, req)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return brakeResponse(req.Query), nil
}

func (m *mockSearchService) Understand(_ context.Context, query string) domain.QueryIntent {
	return domain.QueryIntent{OriginalQuery: query, Intent: domain.IntentGeneralSearch}
}

func (m *mockSearchService) Suggest(_ context.Context, prefix string, limit int) []string {
	var out []string
	for _, term := range []string{"brake", "brake pad", "bracket"} {
		if strings.HasPrefix(term, prefix) && len(out) < limit {
			out = append(out, term)
		}
	}
	return out
}

func (m *mockSearchService) QuickMetrics(_ context.Context) (*domain.QuickMetrics, error) {
	return &domain.QuickMetrics{
		TotalParts:    3,
		Systems:       1,
		Manufacturers: 2,
		AverageCost:   2000,
		Ranker:        "lexical",
		CatalogHash:   "abc123",
	}, nil
}

func (m *mockSearchService) NewConversation() driving.Conversation {
	return &mockConversation{search: m}
}

// mockConversation answers follow-ups containing "cheaper" or "compare".
type mockConversation struct {
	search *mockSearchService
	asked  int
}

func (c *mockConversation) ID() string { return "conv-1" }

func (c *mockConversation) Ask(ctx context.Context, req domain.QueryRequest) (*domain.Response, error) {
	c.asked++
	return c.search.Query(ctx, req)
}

func (c *mockConversation) Record(string, domain.QueryIntent, []domain.EnrichedResult) {}

func (c *mockConversation) FollowUp(_ context.Context, question string) (*domain.FollowUpAnswer, error) {
	if c.asked == 0 {
		return &domain.FollowUpAnswer{
			Type:     domain.FollowUpNoContext,
			Question: question,
			Response: "There are no previous results to refine yet.",
		}, nil
	}
	if strings.Contains(question, "compare") {
		return &domain.FollowUpAnswer{
			Type:     domain.FollowUpComparison,
			Question: question,
			Response: "Compared BRK-001 with BRK-002.",
			Diff: &domain.Comparison{
				Left:           "BRK-001",
				Right:          "BRK-002",
				Fields:         []domain.FieldDiff{{Field: "material", Left: "ceramic", Right: "metal", Differs: true}},
				CostDifference: -500,
				Cheaper:        "BRK-001",
			},
		}, nil
	}
	return &domain.FollowUpAnswer{
		Type:     domain.FollowUpCheaper,
		Question: question,
		Response: "Found 1 cheaper alternatives in the same systems.",
		Alternatives: []domain.Alternative{{
			Part:           domain.Part{"part_number": "BRK-009", "part_name": "Budget pad"},
			CostNumeric:    1000,
			StockNumeric:   4,
			Savings:        1500,
			AlternativeFor: "BRK-001",
		}},
	}, nil
}

func (c *mockConversation) IsFollowUp(question string) bool {
	return strings.Contains(question, "cheaper") || strings.Contains(question, "compare")
}

func (c *mockConversation) History() []domain.Turn { return nil }

func brakeResponse(query string) *domain.Response {
	return &domain.Response{
		Query: query,
		Understanding: domain.QueryIntent{
			OriginalQuery:  query,
			Intent:         domain.IntentCostSearch,
			SearchStrategy: domain.StrategyCostOptimized,
			Entities:       domain.Entities{Systems: []string{"brakes"}},
			Filters:        domain.Filters{MaxCost: domain.Float64(3000)},
		},
		Results: []domain.EnrichedResult{{
			Part: domain.Part{
				"part_number": "BRK-001",
				"part_name":   "Ceramic brake pad",
				"system":      "brakes",
			},
			CostNumeric:          2500,
			StockNumeric:         12,
			MatchType:            domain.MatchCostOptimized,
			MatchScore:           0.9,
			MatchExplanation:     "cost 2500.00 within budget",
			CostInsights:         domain.CostInsights{Position: domain.CostAboveAverage},
			AvailabilityInsights: domain.AvailabilityInsights{Level: domain.AvailabilityMedium, StockLevel: 12},
		}},
		ResultCount:  1,
		SearchTimeMs: 1.5,
		Suggestions:  []string{"Try 'anything cheaper?'"},
	}
}

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	values   map[string]string
	settings domain.AppSettings
	invalid  error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		values:   make(map[string]string),
		settings: domain.DefaultAppSettings(),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	for _, k := range m.Keys() {
		if k == key {
			m.values[key] = value
			return nil
		}
	}
	return fmt.Errorf("unknown setting: %s", key)
}

func (m *mockSettingsService) Keys() []string {
	return []string{
		"catalog.path", "search.default_limit", "vector_index.enabled",
		"embedding.provider", "embedding.model", "embedding.base_url", "embedding.api_key",
	}
}

func (m *mockSettingsService) Validate() error { return m.invalid }

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// setupTestServices installs mock services and resets flag state.
func setupTestServices() (*mockSearchService, *mockSettingsService, func()) {
	search := &mockSearchService{}
	settings := newMockSettingsService()

	origSearch, origSettings, origLoader, origHandler := searchService, settingsService, searchLoader, metricsHandler
	searchService = search
	settingsService = settings

	return search, settings, func() {
		searchService, settingsService, searchLoader, metricsHandler = origSearch, origSettings, origLoader, origHandler
		queryLimit, queryMinCost, queryMaxCost, queryMinStock = 0, 0, 0, 0
		queryStrategy, queryJSON, queryContext = "", false, false
		suggestLimit = 5
		metricsJSON = false
		chatPlain = false
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	}
}
