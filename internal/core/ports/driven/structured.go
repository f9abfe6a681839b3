package driven

import (
	"context"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// StructuredIndex is a relational projection of the record store.
// Rows are keyed by record position. Safe for concurrent readers.
type StructuredIndex interface {
	// Search runs a filtered scan and returns matching record positions
	// in query order. Malformed predicates fail with domain.ErrInvalidPredicate
	// before execution. An empty result is not an error.
	Search(ctx context.Context, q domain.StructuredQuery) ([]int, error)

	// Aggregate computes grouped measures.
	Aggregate(ctx context.Context, q domain.AggregateQuery) ([]domain.AggregateRow, error)

	// Distinct returns the sorted non-empty values of a text column.
	Distinct(ctx context.Context, column domain.Column) ([]string, error)

	// Close releases resources.
	Close() error
}
