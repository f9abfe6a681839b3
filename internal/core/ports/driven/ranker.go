package driven

import (
	"context"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// Ranker scores records by similarity to free text or to another record.
// The lexical and vector indices both implement it and are interchangeable.
type Ranker interface {
	// Name identifies the ranker ("lexical" or "vector").
	Name() string

	// Rank returns up to k records scoring at least minScore against query,
	// in descending score order with ties broken by record position.
	Rank(ctx context.Context, query string, k int, minScore float64) ([]domain.ScoredIndex, error)

	// SimilarTo ranks records against the record at index, excluding it.
	SimilarTo(ctx context.Context, index, k int, minScore float64) ([]domain.ScoredIndex, error)
}

// Vocabulary exposes the fitted lexical vocabulary for auto-suggest.
type Vocabulary interface {
	// Complete returns up to limit vocabulary terms that start with prefix
	// and are longer than it, in lexical order.
	Complete(prefix string, limit int) []string
}
