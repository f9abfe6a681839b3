package mcp

import (
	"net/http"

	"github.com/custodia-labs/partsearch/internal/core/ports/driving"
)

// Ports aggregates the dependencies of the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides query, follow-up and metrics capabilities.
	Search driving.SearchService

	// Metrics serves Prometheus metrics next to the HTTP transport.
	// Optional; stdio mode never uses it.
	Metrics http.Handler
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
