package services

import (
	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
)

// passesFilters checks one record against the numeric filters.
// A set bound requires a known (non-zero) value; unset bounds pass.
func passesFilters(f domain.Filters, cost float64, stock int) bool {
	if f.MinCost != nil && *f.MinCost > 0 {
		if cost <= 0 || cost < *f.MinCost {
			return false
		}
	}
	if f.MaxCost != nil {
		if cost <= 0 || cost > *f.MaxCost {
			return false
		}
	}
	if f.MinStock != nil && *f.MinStock > 0 {
		if stock <= 0 || stock < *f.MinStock {
			return false
		}
	}
	return true
}

// applyFilters keeps the candidates whose records pass f, in order.
// Candidates pointing at unknown records are dropped.
func applyFilters(f domain.Filters, records driven.RecordStore, candidates []domain.Candidate) []domain.Candidate {
	if f.IsZero() {
		return candidates
	}
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		rec, err := records.Get(c.Index)
		if err != nil {
			continue
		}
		if passesFilters(f, rec.CostNumeric, rec.StockNumeric) {
			out = append(out, c)
		}
	}
	return out
}

// filterPredicates expresses the numeric filters as structured index
// predicates with the same semantics as passesFilters.
func filterPredicates(f domain.Filters) []domain.Predicate {
	var preds []domain.Predicate
	if f.MinCost != nil && *f.MinCost > 0 {
		preds = append(preds, domain.Predicate{Column: domain.ColumnCostNumeric, Op: domain.OpGte, Value: *f.MinCost})
	}
	if f.MaxCost != nil {
		preds = append(preds,
			domain.Predicate{Column: domain.ColumnCostNumeric, Op: domain.OpGt, Value: 0.0},
			domain.Predicate{Column: domain.ColumnCostNumeric, Op: domain.OpLte, Value: *f.MaxCost},
		)
	}
	if f.MinStock != nil && *f.MinStock > 0 {
		preds = append(preds, domain.Predicate{Column: domain.ColumnStockNumeric, Op: domain.OpGte, Value: *f.MinStock})
	}
	return preds
}
