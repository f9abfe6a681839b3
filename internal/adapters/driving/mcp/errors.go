// Package mcp provides an MCP (Model Context Protocol) server adapter for partsearch.
// It lets AI assistants query the parts catalog and refine results conversationally.
package mcp

import "errors"

var (
	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrMissingQuestion is returned when a follow-up has no question.
	ErrMissingQuestion = errors.New("mcp: question is required")
)
