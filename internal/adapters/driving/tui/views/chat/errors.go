package chat

import "errors"

// Error definitions for the chat view.
var (
	// ErrNoSearchService indicates that no search service was provided.
	ErrNoSearchService = errors.New("search service is required")
)
