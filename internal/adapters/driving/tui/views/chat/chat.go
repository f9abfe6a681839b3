// Package chat provides the conversation view of the TUI: a transcript of
// questions and answers above the parts they returned.
package chat

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/partsearch/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/partsearch/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/partsearch/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/partsearch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/partsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/partsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driving"
)

// suggestLimit bounds the completions shown under the input.
const suggestLimit = 5

// Entry is one exchange of the transcript.
type Entry struct {
	Question string
	Answer   string
}

// View is the conversation view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.ChatInput
	list      *list.ResultList
	statusbar *status.Bar

	search driving.SearchService
	conv   driving.Conversation
	ctx    context.Context
	limit  int

	transcript []Entry
	metrics    *domain.QuickMetrics

	width      int
	height     int
	ready      bool
	err        error
	pending    bool
	focusInput bool // true = typing, false = browsing results
}

// NewView creates a new chat view asking for up to limit results per query.
func NewView(s *styles.Styles, km *keymap.KeyMap, search driving.SearchService, limit int) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if limit <= 0 {
		limit = domain.DefaultLimit
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewChatInput(s),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		search:     search,
		ctx:        context.Background(),
		limit:      limit,
		width:      80,
		height:     24,
		focusInput: true,
	}
	if search != nil {
		v.conv = search.NewConversation()
	}
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.QueryCompleted:
		v.handleQueryCompleted(msg)
		return v, nil

	case messages.FollowUpAnswered:
		v.handleFollowUpAnswered(msg)
		return v, nil

	case messages.SuggestionsLoaded:
		v.input.SetSuggestions(msg.Prefix, msg.Suggestions)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	if keymap.Matches(keyStr, v.keymap.Reset) {
		v.Reset()
		return v, nil
	}

	if keymap.Matches(keyStr, v.keymap.Toggle) {
		v.setFocus(!v.focusInput)
		return v, nil
	}

	if v.focusInput {
		switch {
		case keymap.Matches(keyStr, v.keymap.Submit):
			return v, v.submit(v.input.Value())
		case keymap.Matches(keyStr, v.keymap.Complete):
			if v.input.ApplySuggestion() {
				return v, nil
			}
			return v, v.fetchSuggestions(v.input.LastWord())
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(keyStr, v.keymap.Help):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewHelp}
		}
	case keymap.Matches(keyStr, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(keyStr, v.keymap.Down):
		v.list.MoveDown()
	}
	return v, nil
}

// submit routes the question: refinements of the last results become
// follow-ups, anything else is a new query.
func (v *View) submit(question string) tea.Cmd {
	question = strings.TrimSpace(question)
	if question == "" || v.pending {
		return nil
	}
	if v.conv == nil {
		v.setError(ErrNoSearchService)
		return nil
	}

	v.pending = true
	v.err = nil
	v.transcript = append(v.transcript, Entry{Question: question})
	v.input.Reset()
	v.statusbar.SetState(status.StateSearching)

	conv, ctx := v.conv, v.ctx
	if conv.IsFollowUp(question) {
		return func() tea.Msg {
			answer, err := conv.FollowUp(ctx, question)
			return messages.FollowUpAnswered{Question: question, Answer: answer, Err: err}
		}
	}

	req := domain.QueryRequest{Query: question, Limit: v.limit}
	return func() tea.Msg {
		resp, err := conv.Ask(ctx, req)
		return messages.QueryCompleted{Question: question, Response: resp, Err: err}
	}
}

func (v *View) fetchSuggestions(prefix string) tea.Cmd {
	if prefix == "" || v.search == nil {
		return nil
	}
	search, ctx := v.search, v.ctx
	return func() tea.Msg {
		return messages.SuggestionsLoaded{
			Prefix:      prefix,
			Suggestions: search.Suggest(ctx, prefix, suggestLimit),
		}
	}
}

func (v *View) handleQueryCompleted(msg messages.QueryCompleted) {
	v.pending = false
	if msg.Err != nil {
		v.answer("Error: " + msg.Err.Error())
		v.setError(msg.Err)
		return
	}

	resp := msg.Response
	v.list.SetRows("Results", list.RowsFromResults(resp.Results))
	v.statusbar.SetResults(resp.ResultCount, resp.Understanding.SearchStrategy, resp.SearchTimeMs)
	v.answer(summarise(resp))
}

func (v *View) handleFollowUpAnswered(msg messages.FollowUpAnswered) {
	v.pending = false
	if msg.Err != nil {
		v.answer("Error: " + msg.Err.Error())
		v.setError(msg.Err)
		return
	}

	answer := msg.Answer
	text := answer.Response
	switch answer.Type {
	case domain.FollowUpCheaper:
		v.list.SetRows("Cheaper alternatives", list.RowsFromAlternatives(answer.Alternatives))
		v.statusbar.SetResults(len(answer.Alternatives), "", 0)
	case domain.FollowUpSimilar:
		v.list.SetRows("Similar parts", list.RowsFromResults(answer.Results))
		v.statusbar.SetResults(len(answer.Results), "", 0)
	case domain.FollowUpAvailability:
		v.list.SetRows("In stock", list.RowsFromResults(answer.Results))
		v.statusbar.SetResults(len(answer.Results), "", 0)
	case domain.FollowUpComparison:
		if answer.Diff != nil {
			text += "\n" + describeDiff(answer.Diff)
		}
		v.statusbar.SetState(status.StateResults)
	case domain.FollowUpNoContext, domain.FollowUpGeneral:
		v.statusbar.SetState(status.StateReady)
	}
	v.answer(text)
}

// answer fills in the pending transcript entry.
func (v *View) answer(text string) {
	if len(v.transcript) == 0 {
		return
	}
	v.transcript[len(v.transcript)-1].Answer = text
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) setFocus(input bool) {
	v.focusInput = input
	v.statusbar.SetBrowsing(!input)
	if input {
		v.input.Focus()
	} else {
		v.input.Blur()
	}
}

func summarise(resp *domain.Response) string {
	var b strings.Builder
	if resp.ResultCount == 0 {
		b.WriteString("No matching parts found.")
	} else {
		fmt.Fprintf(&b, "Found %d parts (%s).", resp.ResultCount,
			strings.ReplaceAll(string(resp.Understanding.Intent), "_", " "))
	}
	for _, s := range resp.Suggestions {
		b.WriteString("\n  " + s)
	}
	return b.String()
}

func describeDiff(diff *domain.Comparison) string {
	lines := make([]string, 0, len(diff.Fields)+1)
	for _, f := range diff.Fields {
		if f.Differs {
			lines = append(lines, fmt.Sprintf("  %s: %s | %s", f.Field, f.Left, f.Right))
		}
	}
	if diff.Cheaper != "" {
		lines = append(lines, fmt.Sprintf("  %s is cheaper by %.2f", diff.Cheaper, abs(diff.CostDifference)))
	}
	return strings.Join(lines, "\n")
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.renderHeader(), "")

	if transcript := v.renderTranscript(); transcript != "" {
		sections = append(sections, transcript, "")
	}

	sections = append(sections, v.input.View(), "")
	sections = append(sections, v.list.View(), "")
	sections = append(sections, v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderHeader() string {
	title := v.styles.Title.Render("partsearch")
	if v.metrics == nil {
		return title
	}
	m := v.metrics
	summary := fmt.Sprintf("  %d parts | %d systems | %d manufacturers | avg cost %.2f | %d low stock",
		m.TotalParts, m.Systems, m.Manufacturers, m.AverageCost, m.LowStockParts)
	return title + v.styles.Muted.Render(summary)
}

// renderTranscript shows the most recent exchanges that fit a third of the
// screen.
func (v *View) renderTranscript() string {
	budget := v.height / 3
	if budget < 2 {
		budget = 2
	}

	var blocks []string
	used := 0
	for i := len(v.transcript) - 1; i >= 0; i-- {
		e := v.transcript[i]
		answer := e.Answer
		if answer == "" {
			answer = "..."
		}
		block := v.styles.User.Render("you: ") + v.styles.Normal.Render(e.Question) + "\n" +
			v.styles.Engine.Render(answer)
		lines := strings.Count(block, "\n") + 1
		if used+lines > budget && len(blocks) > 0 {
			break
		}
		used += lines
		blocks = append([]string{block}, blocks...)
	}
	return strings.Join(blocks, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height/2)
	v.statusbar.SetWidth(width)
}

// SetMetrics shows the catalog summary in the header.
func (v *View) SetMetrics(m *domain.QuickMetrics) {
	v.metrics = m
	if m != nil {
		v.statusbar.SetRanker(m.Ranker)
	}
}

// Reset starts a new conversation with an empty transcript.
func (v *View) Reset() {
	if v.search != nil {
		v.conv = v.search.NewConversation()
	}
	v.transcript = nil
	v.pending = false
	v.err = nil
	v.input.Reset()
	v.list.SetRows("Results", nil)
	v.statusbar.Clear()
	v.setFocus(true)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Transcript returns the exchanges so far, oldest first.
func (v *View) Transcript() []Entry {
	return v.transcript
}

// Rows returns the parts currently listed.
func (v *View) Rows() []list.Row {
	return v.list.Rows()
}

// ListTitle returns the header of the part list.
func (v *View) ListTitle() string {
	return v.list.Title()
}

// SelectedIndex returns the index of the selected part.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Conversation returns the active conversation handle.
func (v *View) Conversation() driving.Conversation {
	return v.conv
}

// Input returns the question input.
func (v *View) Input() *input.ChatInput {
	return v.input
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Pending reports whether a question is awaiting its answer.
func (v *View) Pending() bool {
	return v.pending
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
