// Package status provides the status bar for the chat TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/partsearch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/partsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// State represents the current application state for display.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateError     State = "error"
	StateResults   State = "results"
)

// Bar displays the last query's strategy and timing plus keybinding hints.
type Bar struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	state    State
	message  string
	count    int
	strategy domain.Strategy
	elapsed  float64
	ranker   string
	browsing bool
	width    int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	inner := s.width - s.styles.StatusBar.GetHorizontalFrameSize()
	padding := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var left string
	switch s.state {
	case StateSearching:
		left = s.styles.Muted.Render("Searching...")
	case StateError:
		if s.message != "" {
			left = s.styles.Error.Render("Error: " + s.message)
		} else {
			left = s.styles.Error.Render("Error")
		}
	case StateResults:
		text := fmt.Sprintf("%d results", s.count)
		if s.strategy != "" {
			text += fmt.Sprintf(" via %s in %.1fms", s.strategy, s.elapsed)
		}
		left = s.styles.Normal.Render(text)
	default:
		left = s.styles.Muted.Render("Ready")
	}
	if s.ranker != "" {
		left += s.styles.Muted.Render(" | " + s.ranker)
	}
	return left
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.browsing {
		bindings = s.keymap.ResultsHelp()
	} else {
		bindings = s.keymap.InputHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Help.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the error message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetResults records a completed retrieval. Follow-up answers pass an empty
// strategy.
func (s *Bar) SetResults(count int, strategy domain.Strategy, elapsedMs float64) {
	s.state = StateResults
	s.message = ""
	s.count = count
	s.strategy = strategy
	s.elapsed = elapsedMs
}

// ResultCount returns the last result count.
func (s *Bar) ResultCount() int {
	return s.count
}

// SetRanker shows the active ranker.
func (s *Bar) SetRanker(name string) {
	s.ranker = name
}

// SetBrowsing switches the hints between input and results mode.
func (s *Bar) SetBrowsing(browsing bool) {
	s.browsing = browsing
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state, keeping the ranker.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.count = 0
	s.strategy = ""
	s.elapsed = 0
}
