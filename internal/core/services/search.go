package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
	"github.com/custodia-labs/partsearch/internal/core/ports/driving"
	"github.com/custodia-labs/partsearch/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// defaultSuggestMax bounds Suggest when the caller passes no maximum.
const defaultSuggestMax = 5

// SearchService is the conversational parts search engine.
// It is safe for concurrent use once constructed.
type SearchService struct {
	records      driven.RecordStore
	index        driven.StructuredIndex
	ranker       driven.Ranker
	vocabulary   driven.Vocabulary
	metrics      driven.QueryMetrics
	understander *Understander
	dispatcher   *Dispatcher
	enricher     *Enricher

	vectorAvailable bool
	historySize     int
	catalogHash     string
	now             func() time.Time
}

// Option configures a SearchService.
type Option func(*SearchService)

// WithMetrics records query activity. Nil disables recording.
func WithMetrics(m driven.QueryMetrics) Option {
	return func(s *SearchService) { s.metrics = m }
}

// WithVectorAvailable reports whether the vector ranker initialised.
func WithVectorAvailable(ok bool) Option {
	return func(s *SearchService) { s.vectorAvailable = ok }
}

// WithHistorySize bounds conversation history.
func WithHistorySize(n int) Option {
	return func(s *SearchService) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithClock replaces time.Now for processed_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SearchService) { s.now = now }
}

// NewSearchService creates the engine over fully built indices.
// The understander's vocabulary is read from the structured index once.
func NewSearchService(
	ctx context.Context,
	records driven.RecordStore,
	index driven.StructuredIndex,
	ranker driven.Ranker,
	vocabulary driven.Vocabulary,
	opts ...Option,
) (*SearchService, error) {
	if records == nil || index == nil || ranker == nil {
		return nil, errors.New("record store, structured index and ranker are required")
	}

	s := &SearchService{
		records:     records,
		index:       index,
		ranker:      ranker,
		vocabulary:  vocabulary,
		dispatcher:  NewDispatcher(records, index, ranker),
		enricher:    NewEnricher(records, index),
		historySize: domain.DefaultHistorySize,
		catalogHash: domain.CatalogHash(records.All()),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	vocab, err := loadVocabulary(ctx, index)
	if err != nil {
		return nil, err
	}
	vocab.KnownPartNumber = func(token string) bool {
		_, ok := records.FindByPartNumber(token)
		return ok
	}
	s.understander = NewUnderstander(vocab)
	s.understander.now = s.now

	if s.metrics != nil {
		s.metrics.SetCatalogSize(records.Len())
	}
	logger.Debug("Search service ready: %d records, ranker=%s", records.Len(), ranker.Name())
	return s, nil
}

func loadVocabulary(ctx context.Context, index driven.StructuredIndex) (UnderstanderVocabulary, error) {
	var vocab UnderstanderVocabulary
	for _, col := range []struct {
		column domain.Column
		dest   *[]string
	}{
		{domain.ColumnSystem, &vocab.Systems},
		{domain.ColumnManufacturer, &vocab.Manufacturers},
		{domain.ColumnMaterial, &vocab.Materials},
		{domain.ColumnFeature, &vocab.Features},
	} {
		values, err := index.Distinct(ctx, col.column)
		if err != nil {
			return vocab, fmt.Errorf("distinct %s: %w", col.column, err)
		}
		*col.dest = values
	}
	return vocab, nil
}

// Query understands, retrieves and enriches.
func (s *SearchService) Query(ctx context.Context, req domain.QueryRequest) (*domain.Response, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		logger.Debug("Rejected query: %v", err)
		return nil, err
	}

	logger.Section("Query")
	logger.Debug("Query: %q, limit=%d", req.Query, req.Limit)

	intent := s.understand(req)
	logger.Debug("Intent: %s, strategy: %s, ranker: %s", intent.Intent, intent.SearchStrategy, s.ranker.Name())

	candidates, err := s.dispatcher.Dispatch(ctx, retrievalPlan{
		query:    req.Query,
		intent:   intent,
		limit:    req.Limit,
		deadline: req.Deadline,
	})
	if err != nil {
		logger.Error("Query %q: %v", req.Query, errors.Unwrap(err))
		s.observe(intent.SearchStrategy, 0, start, err)
		return nil, err
	}

	results, err := s.enricher.Enrich(ctx, intent, candidates)
	if err != nil {
		logger.Error("Enrich %q: %v", req.Query, err)
		ierr := domain.NewInternalError(domain.CodeEnrichmentFailed, "enrichment failed", err)
		s.observe(intent.SearchStrategy, 0, start, ierr)
		return nil, ierr
	}

	resp := &domain.Response{
		Query:         req.Query,
		Understanding: intent,
		Results:       results,
		ResultCount:   len(results),
		Suggestions:   s.enricher.Suggestions(intent, results),
	}
	elapsed := time.Since(start)
	resp.SearchTimeMs = float64(elapsed.Microseconds()) / 1000

	logger.Debug("Results: %d in %.2fms", resp.ResultCount, resp.SearchTimeMs)
	s.observe(intent.SearchStrategy, resp.ResultCount, start, nil)
	return resp, nil
}

// understand parses the query and applies request overrides. Override
// filters can change rule-based strategy selection; an explicit strategy
// replaces it.
func (s *SearchService) understand(req domain.QueryRequest) domain.QueryIntent {
	intent := s.understander.Understand(req.Query)
	if req.Filters != nil {
		intent.Filters = intent.Filters.Merge(req.Filters)
		intent.SearchStrategy = selectStrategy(intent)
	}
	if req.Strategy != "" {
		intent.SearchStrategy = req.Strategy
	}
	return intent
}

// Understand parses a query without retrieving anything.
func (s *SearchService) Understand(_ context.Context, query string) domain.QueryIntent {
	return s.understander.Understand(query)
}

// Suggest returns vocabulary terms extending prefix.
func (s *SearchService) Suggest(_ context.Context, prefix string, limit int) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || s.vocabulary == nil {
		return []string{}
	}
	if limit <= 0 {
		limit = defaultSuggestMax
	}
	return s.vocabulary.Complete(prefix, limit)
}

// QuickMetrics summarises the catalog and the active ranker.
func (s *SearchService) QuickMetrics(ctx context.Context) (*domain.QuickMetrics, error) {
	systems, err := s.index.Distinct(ctx, domain.ColumnSystem)
	if err != nil {
		return nil, domain.NewInternalError(domain.CodeIndexError, "metrics unavailable", err)
	}
	manufacturers, err := s.index.Distinct(ctx, domain.ColumnManufacturer)
	if err != nil {
		return nil, domain.NewInternalError(domain.CodeIndexError, "metrics unavailable", err)
	}

	avg := domain.Measure{Func: domain.AggAvg, Column: domain.ColumnCostNumeric, SkipZero: true}
	costRows, err := s.index.Aggregate(ctx, domain.AggregateQuery{Measures: []domain.Measure{avg}})
	if err != nil {
		return nil, domain.NewInternalError(domain.CodeIndexError, "metrics unavailable", err)
	}

	count := domain.Measure{Func: domain.AggCount}
	stockRows, err := s.index.Aggregate(ctx, domain.AggregateQuery{
		Measures: []domain.Measure{count},
		Where: []domain.Predicate{
			{Column: domain.ColumnStockNumeric, Op: domain.OpGt, Value: 0},
			{Column: domain.ColumnStockNumeric, Op: domain.OpLte, Value: domain.LowStockThreshold},
		},
	})
	if err != nil {
		return nil, domain.NewInternalError(domain.CodeIndexError, "metrics unavailable", err)
	}

	m := &domain.QuickMetrics{
		TotalParts:           s.records.Len(),
		Systems:              len(systems),
		Manufacturers:        len(manufacturers),
		Ranker:               s.ranker.Name(),
		VectorIndexAvailable: s.vectorAvailable,
		CatalogHash:          s.catalogHash,
	}
	if len(costRows) > 0 {
		m.AverageCost = round2(costRows[0].Values[avg.Name()])
	}
	if len(stockRows) > 0 {
		m.LowStockParts = int(stockRows[0].Values[count.Name()])
	}
	return m, nil
}

// NewConversation creates an independent conversation handle.
func (s *SearchService) NewConversation() driving.Conversation {
	return NewConversation(s, s.historySize)
}

func (s *SearchService) observe(strategy domain.Strategy, results int, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveQuery(strategy, results, time.Since(start), err)
}
