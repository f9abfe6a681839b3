// Package list provides the part list shown under the conversation.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/partsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// Row is one displayed part: a search result or a cheaper alternative.
type Row struct {
	PartNumber   string
	PartName     string
	System       string
	Cost         float64
	Stock        int
	Availability domain.AvailabilityLevel
	Score        float64
	Detail       string
}

// RowsFromResults converts enriched results to rows.
func RowsFromResults(results []domain.EnrichedResult) []Row {
	rows := make([]Row, len(results))
	for i := range results {
		r := &results[i]
		rows[i] = Row{
			PartNumber:   r.PartNumber(),
			PartName:     r.PartName(),
			System:       r.System(),
			Cost:         r.CostNumeric,
			Stock:        r.StockNumeric,
			Availability: domain.AvailabilityFor(r.StockNumeric),
			Score:        r.MatchScore,
			Detail:       r.MatchExplanation,
		}
	}
	return rows
}

// RowsFromAlternatives converts cheaper alternatives to rows.
func RowsFromAlternatives(alts []domain.Alternative) []Row {
	rows := make([]Row, len(alts))
	for i, a := range alts {
		rows[i] = Row{
			PartNumber:   a.PartNumber(),
			PartName:     a.Part.String(domain.FieldPartName),
			System:       a.System(),
			Cost:         a.CostNumeric,
			Stock:        a.StockNumeric,
			Availability: domain.AvailabilityFor(a.StockNumeric),
			Detail:       fmt.Sprintf("saves %.2f against %s", a.Savings, a.AlternativeFor),
		}
	}
	return rows
}

// ResultList displays parts in a navigable list.
type ResultList struct {
	rows     []Row
	title    string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		title:  "Results",
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the result list.
func (r *ResultList) View() string {
	if len(r.rows) == 0 {
		return r.styles.Muted.Render("No parts to show")
	}

	lines := make([]string, 0, len(r.rows)*2+2)
	header := r.styles.Subtitle.Render(fmt.Sprintf("%s (%d)", r.title, len(r.rows)))
	lines = append(lines, header, "")

	// Each row takes two lines
	visibleCount := (r.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(r.rows) {
		end = len(r.rows)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderRow(i, &r.rows[i]))
	}

	return strings.Join(lines, "\n")
}

// renderRow formats a part on two lines: identity, then price, stock and detail.
func (r *ResultList) renderRow(index int, row *Row) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	name := row.PartName
	maxNameLen := r.width - 30
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	identity := fmt.Sprintf("%s%-14s %s", indicator, row.PartNumber, name)
	if row.System != "" {
		identity += " [" + row.System + "]"
	}
	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(identity)
	} else {
		titleLine = r.styles.Normal.Render(identity)
	}
	if row.Score > 0 {
		titleLine += r.styles.Muted.Render(fmt.Sprintf("  %.2f", row.Score))
	}

	cost := "cost n/a"
	if row.Cost > 0 {
		cost = fmt.Sprintf("%.2f", row.Cost)
	}
	stock := fmt.Sprintf("%d in stock", row.Stock)
	detail := "    " + r.styles.Cost.Render(cost) + "  " +
		r.styles.Availability(row.Availability).Render(stock)
	if row.Detail != "" {
		detail += "  " + r.styles.Muted.Render(row.Detail)
	}

	return titleLine + "\n" + detail
}

// SetRows replaces the rows and resets the selection.
func (r *ResultList) SetRows(title string, rows []Row) {
	r.title = title
	r.rows = rows
	r.selected = 0
}

// Rows returns the current rows.
func (r *ResultList) Rows() []Row {
	return r.rows
}

// Title returns the list header.
func (r *ResultList) Title() string {
	return r.title
}

// Selected returns the index of the selected row.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.rows) {
		r.selected = index
	}
}

// SelectedRow returns the currently selected row, or nil if none.
func (r *ResultList) SelectedRow() *Row {
	if len(r.rows) == 0 || r.selected < 0 || r.selected >= len(r.rows) {
		return nil
	}
	return &r.rows[r.selected]
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.rows)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of rows.
func (r *ResultList) Count() int {
	return len(r.rows)
}

// IsEmpty returns whether the list is empty.
func (r *ResultList) IsEmpty() bool {
	return len(r.rows) == 0
}
