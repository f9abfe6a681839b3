package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
	"github.com/custodia-labs/partsearch/internal/logger"
)

// Similarity thresholds.
const (
	minQuerySimilarity  = 0.05
	minRecordSimilarity = 0.1
)

// oversampleFactor widens index requests whose results are post-filtered.
const oversampleFactor = 3

// retrievalPlan is everything a strategy needs to run.
type retrievalPlan struct {
	query    string
	intent   domain.QueryIntent
	limit    int
	deadline time.Time
}

// retriever is one retrieval mode. It returns candidates with their
// match type and score already assigned.
type retriever interface {
	retrieve(ctx context.Context, plan retrievalPlan, limit int) ([]domain.Candidate, error)
}

// Dispatcher executes search strategies. It is the only place that knows
// about hybrid ordering and deduplication.
type Dispatcher struct {
	records    driven.RecordStore
	strategies map[domain.Strategy]retriever
}

// NewDispatcher creates a dispatcher over the given indices.
func NewDispatcher(records driven.RecordStore, index driven.StructuredIndex, ranker driven.Ranker) *Dispatcher {
	return &Dispatcher{
		records: records,
		strategies: map[domain.Strategy]retriever{
			domain.StrategyExactMatch:       &exactRetriever{records: records, index: index},
			domain.StrategyVectorSimilarity: &similarityRetriever{records: records, ranker: ranker},
			domain.StrategyFilteredSearch:   &filteredRetriever{index: index},
			domain.StrategyCostOptimized:    &costRetriever{records: records, index: index},
		},
	}
}

// Dispatch runs the plan's strategy and returns at most plan.limit
// candidates. A zero limit returns nothing without touching any index.
func (d *Dispatcher) Dispatch(ctx context.Context, plan retrievalPlan) ([]domain.Candidate, error) {
	if plan.limit <= 0 {
		return []domain.Candidate{}, nil
	}

	strategy := plan.intent.SearchStrategy
	if strategy == domain.StrategyHybridSearch {
		return d.hybrid(ctx, plan)
	}

	r, ok := d.strategies[strategy]
	if !ok {
		return nil, domain.NewInternalError(domain.CodeRetrievalFailed, "unknown strategy",
			fmt.Errorf("strategy %q", strategy))
	}
	candidates, err := r.retrieve(ctx, plan, plan.limit)
	if err != nil {
		logger.Warn("%s failed: %v", strategy, err)
		return nil, domain.NewInternalError(domain.CodeRetrievalFailed, "retrieval failed", err)
	}
	return truncate(dedupe(d.records, candidates), plan.limit), nil
}

// hybrid combines exact, similarity and filtered retrieval.
// Exact hits take at most limit/3 slots, similarity hits the next 2*limit/5,
// and filtered hits backfill the rest. Cancellation and the soft deadline
// are checked between sub-queries; when either fires the collected
// candidates are returned.
func (d *Dispatcher) hybrid(ctx context.Context, plan retrievalPlan) ([]domain.Candidate, error) {
	var (
		out       []domain.Candidate
		seen      = make(map[domain.IdentityKey]struct{})
		attempted int
		failures  []error
	)

	add := func(candidates []domain.Candidate, quota int) {
		taken := 0
		for _, c := range candidates {
			if taken == quota || len(out) == plan.limit {
				return
			}
			rec, err := d.records.Get(c.Index)
			if err != nil {
				continue
			}
			key := rec.IdentityKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, c)
			taken++
		}
	}

	type step struct {
		strategy domain.Strategy
		quota    int
	}
	var steps []step
	if len(plan.intent.Entities.PartNumbers) > 0 {
		steps = append(steps, step{domain.StrategyExactMatch, plan.limit / 3})
	}
	steps = append(steps,
		step{domain.StrategyVectorSimilarity, 2 * plan.limit / 5},
		step{domain.StrategyFilteredSearch, plan.limit},
	)

	for _, s := range steps {
		if interrupted(ctx, plan.deadline) {
			logger.Debug("Hybrid search interrupted before %s, returning %d partial results", s.strategy, len(out))
			break
		}
		if s.quota <= 0 {
			continue
		}
		attempted++
		// Ask for enough to survive deduplication against what we hold.
		candidates, err := d.strategies[s.strategy].retrieve(ctx, plan, s.quota+len(out))
		if err != nil {
			logger.Warn("Hybrid sub-query %s failed: %v", s.strategy, err)
			failures = append(failures, err)
			continue
		}
		add(candidates, s.quota)
	}

	if attempted > 0 && len(failures) == attempted {
		return nil, domain.NewInternalError(domain.CodeRetrievalFailed, "all retrieval modes failed",
			errors.Join(failures...))
	}

	sortByScore(out)
	return out, nil
}

func interrupted(ctx context.Context, deadline time.Time) bool {
	if ctx.Err() != nil {
		return true
	}
	return !deadline.IsZero() && !time.Now().Before(deadline)
}

// sortByScore orders candidates by descending score, keeping earlier
// candidates first on ties.
func sortByScore(candidates []domain.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

// dedupe drops candidates whose identity key was already seen.
func dedupe(records driven.RecordStore, candidates []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(candidates))
	seen := make(map[domain.IdentityKey]struct{}, len(candidates))
	for _, c := range candidates {
		rec, err := records.Get(c.Index)
		if err != nil {
			continue
		}
		key := rec.IdentityKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func truncate(candidates []domain.Candidate, limit int) []domain.Candidate {
	if len(candidates) > limit {
		return candidates[:limit]
	}
	return candidates
}

func tag(indices []int, match domain.MatchType, score float64) []domain.Candidate {
	out := make([]domain.Candidate, len(indices))
	for i, idx := range indices {
		out[i] = domain.Candidate{Index: idx, Score: score, MatchType: match}
	}
	return out
}

// exactRetriever looks up each extracted part number. Full equality on
// part_number ranks before substring matches.
type exactRetriever struct {
	records driven.RecordStore
	index   driven.StructuredIndex
}

func (r *exactRetriever) retrieve(ctx context.Context, plan retrievalPlan, limit int) ([]domain.Candidate, error) {
	var out []domain.Candidate
	for _, pn := range plan.intent.Entities.PartNumbers {
		q := domain.StructuredQuery{
			AnyOf: [][]domain.Predicate{{
				{Column: domain.ColumnPartNumber, Op: domain.OpEqFold, Value: pn},
				{Column: domain.ColumnPartNumber, Op: domain.OpContains, Value: pn},
				{Column: domain.ColumnSearchableText, Op: domain.OpContains, Value: domain.CleanText(pn)},
			}},
			Prefer: &domain.Predicate{Column: domain.ColumnPartNumber, Op: domain.OpEqFold, Value: pn},
			Limit:  limit,
		}
		indices, err := r.index.Search(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("exact lookup %s: %w", pn, err)
		}
		out = append(out, tag(indices, domain.MatchExact, domain.ScoreExact)...)
	}
	out = applyFilters(plan.intent.Filters, r.records, dedupe(r.records, out))
	return truncate(out, limit), nil
}

// similarityRetriever ranks records against the query text with whichever
// ranker was selected at startup.
type similarityRetriever struct {
	records driven.RecordStore
	ranker  driven.Ranker
}

func (r *similarityRetriever) retrieve(ctx context.Context, plan retrievalPlan, limit int) ([]domain.Candidate, error) {
	filters := plan.intent.Filters
	k := limit
	if !filters.IsZero() {
		k *= oversampleFactor
	}
	hits, err := r.ranker.Rank(ctx, plan.query, k, minQuerySimilarity)
	if err != nil {
		return nil, fmt.Errorf("%s rank: %w", r.ranker.Name(), err)
	}
	out := similarityCandidates(hits, minQuerySimilarity)
	return truncate(applyFilters(filters, r.records, out), limit), nil
}

// similarityCandidates tags ranker hits, clamping scores to [minScore, 1].
func similarityCandidates(hits []domain.ScoredIndex, minScore float64) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(hits))
	for _, h := range hits {
		if h.Score < minScore {
			continue
		}
		out = append(out, domain.Candidate{
			Index:     h.Index,
			Score:     math.Min(h.Score, 1),
			MatchType: domain.MatchSimilarity,
		})
	}
	return out
}

// filteredRetriever scans by system, manufacturer and numeric filters,
// cheapest first.
type filteredRetriever struct {
	index driven.StructuredIndex
}

func (r *filteredRetriever) retrieve(ctx context.Context, plan retrievalPlan, limit int) ([]domain.Candidate, error) {
	q := domain.StructuredQuery{
		Where:   filterPredicates(plan.intent.Filters),
		AnyOf:   entityGroups(plan.intent.Entities),
		OrderBy: []domain.Order{{Column: domain.ColumnCostNumeric, ZeroLast: true}},
		Limit:   limit,
	}
	indices, err := r.index.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filtered search: %w", err)
	}
	return tag(indices, domain.MatchFiltered, domain.ScoreFiltered), nil
}

// entityGroups builds one OR group per entity kind.
func entityGroups(e domain.Entities) [][]domain.Predicate {
	var groups [][]domain.Predicate
	for _, kind := range []struct {
		column domain.Column
		values []string
	}{
		{domain.ColumnSystem, e.Systems},
		{domain.ColumnManufacturer, e.Manufacturers},
	} {
		if len(kind.values) == 0 {
			continue
		}
		group := make([]domain.Predicate, len(kind.values))
		for i, v := range kind.values {
			group[i] = domain.Predicate{Column: kind.column, Op: domain.OpEqFold, Value: v}
		}
		groups = append(groups, group)
	}
	return groups
}

// costRetriever searches the query's content terms and orders by cost.
// Every term must appear in the searchable text; when that finds nothing
// any single term is enough. Unknown (zero) costs sort last. Candidates
// are post-filtered even though the bounds also go to the index.
type costRetriever struct {
	records driven.RecordStore
	index   driven.StructuredIndex
}

func (r *costRetriever) retrieve(ctx context.Context, plan retrievalPlan, limit int) ([]domain.Candidate, error) {
	filters := plan.intent.Filters
	terms := contentTerms(plan.query)

	contains := make([]domain.Predicate, len(terms))
	for i, t := range terms {
		contains[i] = domain.Predicate{Column: domain.ColumnSearchableText, Op: domain.OpContains, Value: t}
	}

	q := domain.StructuredQuery{
		Where:   append(filterPredicates(filters), contains...),
		OrderBy: []domain.Order{{Column: domain.ColumnCostNumeric, ZeroLast: true}},
		Limit:   limit * oversampleFactor,
	}
	indices, err := r.index.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("cost search: %w", err)
	}

	if len(indices) == 0 && len(terms) > 1 {
		q.Where = filterPredicates(filters)
		q.AnyOf = [][]domain.Predicate{contains}
		indices, err = r.index.Search(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("cost search: %w", err)
		}
	}

	out := applyFilters(filters, r.records, tag(indices, domain.MatchCostOptimized, domain.ScoreCostOptimized))
	return truncate(out, limit), nil
}
