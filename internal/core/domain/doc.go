// Package domain defines the core business entities for partsearch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Part / Record: a catalog record and its normalised views
//   - QueryIntent: the structured understanding of a query
//   - Candidate / EnrichedResult: retrieval output before and after enrichment
//   - StructuredQuery / AggregateQuery: the structured index query language
//   - FollowUpAnswer: typed answers to conversational follow-ups
//
// Normalisation of cost, stock and searchable text lives here so that it
// runs exactly once per record, at load.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
