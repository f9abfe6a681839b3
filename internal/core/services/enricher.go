package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
)

// Cost position bands around the system average.
const (
	belowAverageRatio = 0.9
	aboveAverageRatio = 1.1
)

// broadenThreshold is the similarity result count below which broader
// terms are suggested.
const broadenThreshold = 5

// Measures computed per system for enrichment.
var systemMeasures = []domain.Measure{
	{Func: domain.AggCount},
	{Func: domain.AggAvg, Column: domain.ColumnCostNumeric, SkipZero: true},
	{Func: domain.AggMin, Column: domain.ColumnCostNumeric, SkipZero: true},
	{Func: domain.AggMax, Column: domain.ColumnCostNumeric, SkipZero: true},
}

// systemStats are the aggregates of one system.
type systemStats struct {
	count   int
	avgCost float64
	minCost float64
	maxCost float64
}

// Enricher annotates candidates with explanations and catalog context.
type Enricher struct {
	records driven.RecordStore
	index   driven.StructuredIndex
}

// NewEnricher creates an enricher.
func NewEnricher(records driven.RecordStore, index driven.StructuredIndex) *Enricher {
	return &Enricher{records: records, index: index}
}

// Enrich turns candidates into enriched results, preserving order.
// System aggregates are computed once per call for the systems present.
func (e *Enricher) Enrich(
	ctx context.Context, intent domain.QueryIntent, candidates []domain.Candidate,
) ([]domain.EnrichedResult, error) {
	results := make([]domain.EnrichedResult, 0, len(candidates))
	if len(candidates) == 0 {
		return results, nil
	}

	records := make([]domain.Record, 0, len(candidates))
	for _, c := range candidates {
		rec, err := e.records.Get(c.Index)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", c.Index, err)
		}
		records = append(records, rec)
	}

	stats, err := e.systemStats(ctx, records)
	if err != nil {
		return nil, err
	}

	for i, c := range candidates {
		results = append(results, e.enrichOne(intent, c, records[i], stats))
	}
	return results, nil
}

// EnrichRecord annotates a single record outside a retrieval pass.
func (e *Enricher) EnrichRecord(
	ctx context.Context, intent domain.QueryIntent, c domain.Candidate,
) (domain.EnrichedResult, error) {
	out, err := e.Enrich(ctx, intent, []domain.Candidate{c})
	if err != nil {
		return domain.EnrichedResult{}, err
	}
	return out[0], nil
}

func (e *Enricher) systemStats(ctx context.Context, records []domain.Record) (map[string]systemStats, error) {
	var group []domain.Predicate
	seen := make(map[string]struct{})
	for _, r := range records {
		sys := r.System()
		if sys == "" {
			continue
		}
		if _, dup := seen[sys]; dup {
			continue
		}
		seen[sys] = struct{}{}
		group = append(group, domain.Predicate{Column: domain.ColumnSystem, Op: domain.OpEq, Value: sys})
	}
	stats := make(map[string]systemStats, len(group))
	if len(group) == 0 {
		return stats, nil
	}

	rows, err := e.index.Aggregate(ctx, domain.AggregateQuery{
		GroupBy:  domain.ColumnSystem,
		Measures: systemMeasures,
		AnyOf:    [][]domain.Predicate{group},
	})
	if err != nil {
		return nil, fmt.Errorf("system aggregates: %w", err)
	}
	for _, row := range rows {
		stats[row.Group] = systemStats{
			count:   int(row.Values[systemMeasures[0].Name()]),
			avgCost: row.Values[systemMeasures[1].Name()],
			minCost: row.Values[systemMeasures[2].Name()],
			maxCost: row.Values[systemMeasures[3].Name()],
		}
	}
	return stats, nil
}

func (e *Enricher) enrichOne(
	intent domain.QueryIntent, c domain.Candidate, rec domain.Record, stats map[string]systemStats,
) domain.EnrichedResult {
	sys := rec.System()
	st := stats[sys]

	res := domain.EnrichedResult{
		Index:        rec.Index,
		Part:         rec.Fields,
		CostNumeric:  rec.CostNumeric,
		StockNumeric: rec.StockNumeric,
		MatchType:    c.MatchType,
		MatchScore:   c.Score,
		AvailabilityInsights: domain.AvailabilityInsights{
			Level:      domain.AvailabilityFor(rec.StockNumeric),
			StockLevel: rec.StockNumeric,
		},
		CostInsights: costInsights(rec.CostNumeric, st),
	}
	if sys != "" {
		res.SimilarityContext = domain.SimilarityContext{
			System:               sys,
			SimilarPartsInSystem: max(st.count-1, 0),
		}
	}
	res.MatchExplanation = explain(intent, res)
	return res
}

func costInsights(cost float64, st systemStats) domain.CostInsights {
	ci := domain.CostInsights{
		Position:        domain.CostUnknown,
		SystemAvgCost:   round2(st.avgCost),
		SystemCostRange: domain.CostRange{Min: st.minCost, Max: st.maxCost},
	}
	if cost <= 0 || st.avgCost <= 0 {
		return ci
	}
	switch {
	case cost < belowAverageRatio*st.avgCost:
		ci.Position = domain.CostBelowAverage
	case cost > aboveAverageRatio*st.avgCost:
		ci.Position = domain.CostAboveAverage
	default:
		ci.Position = domain.CostAverage
	}
	ci.SavingsPotential = round2(math.Max(0, st.avgCost-cost))
	return ci
}

func explain(intent domain.QueryIntent, r domain.EnrichedResult) string {
	switch r.MatchType {
	case domain.MatchExact:
		return fmt.Sprintf("Exact part number match for %s", r.PartNumber())
	case domain.MatchSimilarity:
		return fmt.Sprintf("Similar to your query (similarity %.2f)", r.MatchScore)
	case domain.MatchFiltered:
		var matched []string
		for _, s := range intent.Entities.Systems {
			if strings.EqualFold(s, r.System()) {
				matched = append(matched, "system "+s)
			}
		}
		for _, m := range intent.Entities.Manufacturers {
			if strings.EqualFold(m, r.Part.String(domain.FieldManufacturer)) {
				matched = append(matched, "manufacturer "+m)
			}
		}
		if len(matched) == 0 {
			return "Matches your filters"
		}
		return "Matches " + strings.Join(matched, " and ")
	case domain.MatchCostOptimized:
		if r.CostNumeric <= 0 {
			return "Matches your query; price not listed"
		}
		return fmt.Sprintf("Low-cost option at %.2f (%s for %s)",
			r.CostNumeric, strings.ReplaceAll(string(r.CostInsights.Position), "_", " "), orUnknown(r.System()))
	default:
		return "Matches your query"
	}
}

// Suggestions returns at most domain.MaxSuggestions follow-up hints.
func (e *Enricher) Suggestions(intent domain.QueryIntent, results []domain.EnrichedResult) []string {
	out := make([]string, 0, domain.MaxSuggestions)
	if intent.Intent == domain.IntentSimilaritySearch && len(results) < broadenThreshold {
		out = append(out, "Try broader terms to find more similar parts")
	}
	if intent.Intent == domain.IntentCostSearch {
		out = append(out, "Try alternative manufacturers for better prices")
	}
	if len(results) == 0 {
		out = append(out, "Try more general terms, or search by manufacturer or part type")
	} else if systems := topSystems(results, domain.MaxSuggestions); len(systems) > 0 {
		out = append(out, "Explore more parts in: "+strings.Join(systems, ", "))
	}
	if len(out) > domain.MaxSuggestions {
		out = out[:domain.MaxSuggestions]
	}
	return out
}

// topSystems returns the most frequent systems of results, ties broken by
// first appearance.
func topSystems(results []domain.EnrichedResult, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, r := range results {
		sys := r.System()
		if sys == "" {
			continue
		}
		if counts[sys] == 0 {
			order = append(order, sys)
		}
		counts[sys]++
	}
	// Insertion sort keeps first-appearance order among equal counts.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && counts[order[j]] > counts[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	if len(order) > n {
		order = order[:n]
	}
	return order
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown system"
	}
	return s
}
