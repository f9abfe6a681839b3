// Package input provides the question input for the chat TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/partsearch/internal/adapters/driving/tui/styles"
)

// ChatInput wraps a bubbles textinput and shows vocabulary completions for
// the word being typed.
type ChatInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int

	// suggestions complete prefix, the last word at the time they were fetched.
	prefix      string
	suggestions []string
}

// NewChatInput creates a new chat input component.
func NewChatInput(s *styles.Styles) *ChatInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about parts, e.g. brake pads under 3000..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	return &ChatInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init initialises the input.
func (c *ChatInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages. Editing drops suggestions that no longer
// match the word being typed.
func (c *ChatInput) Update(msg tea.Msg) (*ChatInput, tea.Cmd) {
	var cmd tea.Cmd
	c.textinput, cmd = c.textinput.Update(msg)
	if c.prefix != "" && !strings.EqualFold(c.LastWord(), c.prefix) {
		c.ClearSuggestions()
	}
	return c, cmd
}

// View renders the input and any pending suggestions.
func (c *ChatInput) View() string {
	label := c.styles.Title.Render("Ask: ")
	field := c.styles.InputField.Render(c.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	line := lipgloss.JoinHorizontal(lipgloss.Center, label, field)
	if len(c.suggestions) == 0 {
		return line
	}
	hint := c.styles.Muted.Render("  tab: " + strings.Join(c.suggestions, "  "))
	return lipgloss.JoinVertical(lipgloss.Left, line, hint)
}

// Value returns the current input value.
func (c *ChatInput) Value() string {
	return c.textinput.Value()
}

// SetValue sets the input value and moves the cursor to the end.
func (c *ChatInput) SetValue(value string) {
	c.textinput.SetValue(value)
	c.textinput.CursorEnd()
}

// LastWord returns the word under completion, empty after a trailing space.
func (c *ChatInput) LastWord() string {
	value := c.Value()
	if value == "" || strings.HasSuffix(value, " ") {
		return ""
	}
	fields := strings.Fields(value)
	return fields[len(fields)-1]
}

// SetSuggestions records completions for prefix. They are ignored when the
// user has typed on since the request was made.
func (c *ChatInput) SetSuggestions(prefix string, suggestions []string) {
	if !strings.EqualFold(prefix, c.LastWord()) {
		return
	}
	c.prefix = prefix
	c.suggestions = suggestions
}

// Suggestions returns the pending completions.
func (c *ChatInput) Suggestions() []string {
	return c.suggestions
}

// ClearSuggestions drops pending completions.
func (c *ChatInput) ClearSuggestions() {
	c.prefix = ""
	c.suggestions = nil
}

// ApplySuggestion replaces the last word with the first completion.
// It reports whether anything was applied.
func (c *ChatInput) ApplySuggestion() bool {
	if len(c.suggestions) == 0 || !strings.EqualFold(c.LastWord(), c.prefix) {
		return false
	}
	value := c.Value()
	head := value[:len(value)-len(c.prefix)]
	c.SetValue(head + c.suggestions[0] + " ")
	c.ClearSuggestions()
	return true
}

// Focus sets focus on the input.
func (c *ChatInput) Focus() tea.Cmd {
	return c.textinput.Focus()
}

// Blur removes focus from the input.
func (c *ChatInput) Blur() {
	c.textinput.Blur()
}

// Focused returns whether the input is focused.
func (c *ChatInput) Focused() bool {
	return c.textinput.Focused()
}

// SetWidth sets the width of the input.
func (c *ChatInput) SetWidth(width int) {
	c.width = width
	// Account for label and padding
	inputWidth := width - 10
	if inputWidth < 20 {
		inputWidth = 20
	}
	c.textinput.Width = inputWidth
}

// Width returns the current width.
func (c *ChatInput) Width() int {
	return c.width
}

// Reset clears the input and its suggestions.
func (c *ChatInput) Reset() {
	c.textinput.Reset()
	c.ClearSuggestions()
}
