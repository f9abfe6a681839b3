package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driving"
)

// Ensure Conversation implements the interface.
var _ driving.Conversation = (*Conversation)(nil)

// maxAlternatives bounds cheaper-alternative answers.
const maxAlternatives = 10

// similarFollowUpLimit is the number of records returned for "more like".
const similarFollowUpLimit = domain.DefaultLimit

// Follow-up patterns, checked in order against the lowercased question.
var followUpRules = []struct {
	kind     domain.FollowUpType
	keywords []string
}{
	{domain.FollowUpCheaper, []string{"cheaper", "less expensive", "lower cost"}},
	{domain.FollowUpSimilar, []string{"more like", "similar to", "alternatives"}},
	{domain.FollowUpAvailability, []string{"in stock", "available", "stock level"}},
	{domain.FollowUpComparison, []string{"compare", "difference", "which is better"}},
}

// Conversation remembers the last result set of one client.
type Conversation struct {
	id      string
	engine  *SearchService
	maxSize int

	mu      sync.Mutex
	history []domain.Turn
	last    []domain.EnrichedResult
}

// NewConversation creates a handle over engine keeping at most historySize turns.
func NewConversation(engine *SearchService, historySize int) *Conversation {
	if historySize <= 0 {
		historySize = domain.DefaultHistorySize
	}
	return &Conversation{
		id:      uuid.New().String(),
		engine:  engine,
		maxSize: historySize,
	}
}

// ID uniquely identifies the handle.
func (c *Conversation) ID() string {
	return c.id
}

// Ask runs a query and records it.
func (c *Conversation) Ask(ctx context.Context, req domain.QueryRequest) (*domain.Response, error) {
	resp, err := c.engine.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	c.Record(resp.Query, resp.Understanding, resp.Results)
	return resp, nil
}

// Record appends a turn and replaces the last result set.
func (c *Conversation) Record(query string, understanding domain.QueryIntent, results []domain.EnrichedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, domain.Turn{
		Query:         query,
		Understanding: understanding,
		Results:       results,
		Timestamp:     c.engine.now(),
	})
	if len(c.history) > c.maxSize {
		c.history = c.history[len(c.history)-c.maxSize:]
	}
	c.last = results
}

// History returns the recorded turns, oldest first.
func (c *Conversation) History() []domain.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Turn(nil), c.history...)
}

// FollowUp answers a refinement question against the last result set.
// Answers never modify the memory.
func (c *Conversation) FollowUp(ctx context.Context, question string) (*domain.FollowUpAnswer, error) {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()

	answer, err := c.answer(ctx, question, last)
	if err != nil {
		return nil, err
	}
	if c.engine.metrics != nil {
		c.engine.metrics.ObserveFollowUp(answer.Type)
	}
	return answer, nil
}

func (c *Conversation) answer(
	ctx context.Context, question string, last []domain.EnrichedResult,
) (*domain.FollowUpAnswer, error) {
	if len(last) == 0 {
		return &domain.FollowUpAnswer{
			Type:     domain.FollowUpNoContext,
			Question: question,
			Response: "There are no previous results to refine yet. Ask about some parts first.",
		}, nil
	}

	switch classifyFollowUp(strings.ToLower(question)) {
	case domain.FollowUpCheaper:
		return c.cheaper(ctx, question, last)
	case domain.FollowUpSimilar:
		return c.similar(ctx, question, last)
	case domain.FollowUpAvailability:
		return availability(question, last), nil
	case domain.FollowUpComparison:
		return comparison(question, last), nil
	default:
		return &domain.FollowUpAnswer{
			Type:     domain.FollowUpGeneral,
			Question: question,
			Response: fmt.Sprintf("I can refine the last %d results: ask for cheaper alternatives, "+
				"similar parts, what is in stock, or a comparison.", len(last)),
		}, nil
	}
}

// IsFollowUp reports whether question refines the last result set.
func (c *Conversation) IsFollowUp(question string) bool {
	return IsFollowUp(question)
}

func classifyFollowUp(lower string) domain.FollowUpType {
	for _, rule := range followUpRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.kind
			}
		}
	}
	return domain.FollowUpGeneral
}

// IsFollowUp reports whether question refines the previous results rather
// than starting a new search: it matches a follow-up pattern and names
// nothing new to look for.
func IsFollowUp(question string) bool {
	if classifyFollowUp(strings.ToLower(question)) == domain.FollowUpGeneral {
		return false
	}
	return len(contentTerms(question)) == 0
}

// cheaper finds, for each record of the last set, parts of the same system
// with a strictly lower known cost.
func (c *Conversation) cheaper(
	ctx context.Context, question string, last []domain.EnrichedResult,
) (*domain.FollowUpAnswer, error) {
	var alts []domain.Alternative
	seen := make(map[domain.IdentityKey]struct{})
	for _, r := range last {
		seen[domain.IdentityKey{PartNumber: r.PartNumber(), PartName: r.PartName()}] = struct{}{}
	}

	for _, r := range last {
		if len(alts) == maxAlternatives {
			break
		}
		sys := r.System()
		if sys == "" || r.CostNumeric <= 0 {
			continue
		}
		indices, err := c.engine.index.Search(ctx, domain.StructuredQuery{
			Where: []domain.Predicate{
				{Column: domain.ColumnSystem, Op: domain.OpEq, Value: sys},
				{Column: domain.ColumnCostNumeric, Op: domain.OpGt, Value: 0.0},
				{Column: domain.ColumnCostNumeric, Op: domain.OpLt, Value: r.CostNumeric},
			},
			OrderBy: []domain.Order{{Column: domain.ColumnCostNumeric}},
			Limit:   maxAlternatives,
		})
		if err != nil {
			return nil, domain.NewInternalError(domain.CodeRetrievalFailed, "cheaper alternatives failed", err)
		}
		for _, idx := range indices {
			if len(alts) == maxAlternatives {
				break
			}
			rec, err := c.engine.records.Get(idx)
			if err != nil {
				continue
			}
			key := rec.IdentityKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			alts = append(alts, domain.Alternative{
				Part:               rec.Fields,
				CostNumeric:        rec.CostNumeric,
				StockNumeric:       rec.StockNumeric,
				Savings:            round2(r.CostNumeric - rec.CostNumeric),
				AlternativeFor:     r.PartNumber(),
				AlternativeForCost: r.CostNumeric,
			})
		}
	}

	answer := &domain.FollowUpAnswer{
		Type:         domain.FollowUpCheaper,
		Question:     question,
		Alternatives: alts,
	}
	if len(alts) == 0 {
		answer.Response = "No cheaper parts were found in the same systems."
	} else {
		answer.Response = fmt.Sprintf("Found %d cheaper alternatives in the same systems.", len(alts))
	}
	return answer, nil
}

// similar ranks the catalog against the top record of the last set.
func (c *Conversation) similar(
	ctx context.Context, question string, last []domain.EnrichedResult,
) (*domain.FollowUpAnswer, error) {
	top := last[0]
	hits, err := c.engine.ranker.SimilarTo(ctx, top.Index, similarFollowUpLimit, minRecordSimilarity)
	if err != nil {
		return nil, domain.NewInternalError(domain.CodeRetrievalFailed, "similar parts failed", err)
	}
	candidates := similarityCandidates(hits, minRecordSimilarity)

	intent := domain.QueryIntent{
		OriginalQuery:  question,
		Intent:         domain.IntentSimilaritySearch,
		SearchStrategy: domain.StrategyVectorSimilarity,
	}
	results, err := c.engine.enricher.Enrich(ctx, intent, candidates)
	if err != nil {
		return nil, domain.NewInternalError(domain.CodeEnrichmentFailed, "enrichment failed", err)
	}
	return &domain.FollowUpAnswer{
		Type:     domain.FollowUpSimilar,
		Question: question,
		Results:  results,
		Response: fmt.Sprintf("Found %d parts similar to %s.", len(results), top.PartNumber()),
	}, nil
}

func availability(question string, last []domain.EnrichedResult) *domain.FollowUpAnswer {
	inStock := make([]domain.EnrichedResult, 0, len(last))
	for _, r := range last {
		if r.StockNumeric > 0 {
			r.AvailabilityInsights = domain.AvailabilityInsights{
				Level:      domain.AvailabilityFor(r.StockNumeric),
				StockLevel: r.StockNumeric,
			}
			inStock = append(inStock, r)
		}
	}
	return &domain.FollowUpAnswer{
		Type:     domain.FollowUpAvailability,
		Question: question,
		Results:  inStock,
		Response: fmt.Sprintf("%d of %d parts are in stock.", len(inStock), len(last)),
	}
}

// comparison diffs the top two records of the last set column by column.
func comparison(question string, last []domain.EnrichedResult) *domain.FollowUpAnswer {
	answer := &domain.FollowUpAnswer{Type: domain.FollowUpComparison, Question: question}
	if len(last) < 2 {
		answer.Response = "At least two results are needed for a comparison."
		return answer
	}
	left, right := last[0], last[1]

	keys := make(map[string]struct{})
	for k := range left.Part {
		keys[k] = struct{}{}
	}
	for k := range right.Part {
		keys[k] = struct{}{}
	}
	fields := make([]string, 0, len(keys))
	for k := range keys {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	diff := &domain.Comparison{
		Left:            left.PartNumber(),
		Right:           right.PartNumber(),
		CostDifference:  round2(left.CostNumeric - right.CostNumeric),
		StockDifference: left.StockNumeric - right.StockNumeric,
	}
	for _, f := range fields {
		l, r := left.Part.String(f), right.Part.String(f)
		diff.Fields = append(diff.Fields, domain.FieldDiff{Field: f, Left: l, Right: r, Differs: l != r})
	}
	if left.CostNumeric > 0 && right.CostNumeric > 0 && left.CostNumeric != right.CostNumeric {
		if left.CostNumeric < right.CostNumeric {
			diff.Cheaper = diff.Left
		} else {
			diff.Cheaper = diff.Right
		}
	}

	answer.Diff = diff
	answer.Response = fmt.Sprintf("Compared %s with %s.", diff.Left, diff.Right)
	return answer
}
