// Package messages defines Bubbletea message types for the chat TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// QueryCompleted carries the response to a new question.
type QueryCompleted struct {
	Question string
	Response *domain.Response
	Err      error
}

// FollowUpAnswered carries the answer to a refinement of the last results.
type FollowUpAnswered struct {
	Question string
	Answer   *domain.FollowUpAnswer
	Err      error
}

// SuggestionsLoaded carries vocabulary completions for a prefix.
type SuggestionsLoaded struct {
	Prefix      string
	Suggestions []string
}

// MetricsLoaded carries the catalog summary shown in the header.
type MetricsLoaded struct {
	Metrics *domain.QuickMetrics
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the conversation view.
	ViewChat ViewType = iota
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
