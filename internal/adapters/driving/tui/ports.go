// Package tui provides the interactive chat interface for partsearch.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/partsearch/internal/core/ports/driving"
)

// Ports aggregates the dependencies of the TUI.
type Ports struct {
	// Search answers questions and creates the conversation.
	Search driving.SearchService

	// Limit is the number of results asked for per question.
	// Zero uses the engine default.
	Limit int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
