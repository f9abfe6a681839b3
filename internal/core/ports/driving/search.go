package driving

import (
	"context"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// SearchService answers natural-language questions about the catalog.
type SearchService interface {
	// Query understands, retrieves and enriches.
	// Returns an error wrapping domain.ErrInvalidQuery for bad input, or a
	// *domain.InternalError when retrieval failed entirely.
	Query(ctx context.Context, req domain.QueryRequest) (*domain.Response, error)

	// Understand parses a query without retrieving anything.
	Understand(ctx context.Context, query string) domain.QueryIntent

	// Suggest returns up to limit vocabulary terms extending prefix.
	Suggest(ctx context.Context, prefix string, limit int) []string

	// QuickMetrics summarises the catalog and the active ranker.
	QuickMetrics(ctx context.Context) (*domain.QuickMetrics, error)

	// NewConversation creates an independent conversation handle.
	NewConversation() Conversation
}

// Conversation is a stateful handle over the engine that remembers the last
// result set. A handle must be used by one request at a time.
type Conversation interface {
	// ID uniquely identifies the handle.
	ID() string

	// Ask runs a query and records it.
	Ask(ctx context.Context, req domain.QueryRequest) (*domain.Response, error)

	// Record appends a turn and replaces the last result set.
	Record(query string, understanding domain.QueryIntent, results []domain.EnrichedResult)

	// FollowUp answers a refinement question against the last result set.
	FollowUp(ctx context.Context, question string) (*domain.FollowUpAnswer, error)

	// IsFollowUp reports whether question refines the last result set
	// rather than starting a new search.
	IsFollowUp(question string) bool

	// History returns the recorded turns, oldest first.
	History() []domain.Turn
}
