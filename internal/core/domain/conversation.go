package domain

import "time"

// FollowUpType identifies the kind of follow-up answer.
type FollowUpType string

// Follow-up answer types.
const (
	FollowUpNoContext    FollowUpType = "no_context"
	FollowUpCheaper      FollowUpType = "cheaper_alternatives"
	FollowUpSimilar      FollowUpType = "similar"
	FollowUpAvailability FollowUpType = "availability"
	FollowUpComparison   FollowUpType = "comparison"
	FollowUpGeneral      FollowUpType = "general"
)

// Turn is one recorded exchange of a conversation.
type Turn struct {
	Query         string           `json:"query"`
	Understanding QueryIntent      `json:"understanding"`
	Results       []EnrichedResult `json:"results"`
	Timestamp     time.Time        `json:"timestamp"`
}

// FollowUpAnswer is the typed answer to a follow-up question.
// Only the fields relevant to Type are populated.
type FollowUpAnswer struct {
	Type         FollowUpType     `json:"type"`
	Question     string           `json:"question"`
	Response     string           `json:"response,omitempty"`
	Alternatives []Alternative    `json:"alternatives,omitempty"`
	Results      []EnrichedResult `json:"results,omitempty"`
	Diff         *Comparison      `json:"diff,omitempty"`
}

// Alternative is a cheaper part in the same system as a part of the last
// result set.
type Alternative struct {
	Part         Part    `json:"part"`
	CostNumeric  float64 `json:"cost_numeric"`
	StockNumeric int     `json:"stock_numeric"`
	Savings      float64 `json:"savings"`

	// AlternativeFor is the part number of the last-set record it replaces.
	AlternativeFor     string  `json:"alternative_for"`
	AlternativeForCost float64 `json:"alternative_for_cost"`
}

// PartNumber returns the alternative's part number.
func (a Alternative) PartNumber() string { return a.Part.String(FieldPartNumber) }

// System returns the alternative's system.
func (a Alternative) System() string { return a.Part.String(FieldSystem) }

// Comparison is a column-wise diff of two parts.
type Comparison struct {
	Left            string      `json:"left"`
	Right           string      `json:"right"`
	Fields          []FieldDiff `json:"fields"`
	CostDifference  float64     `json:"cost_difference"`
	Cheaper         string      `json:"cheaper,omitempty"`
	StockDifference int         `json:"stock_difference"`
}

// FieldDiff compares one column across two parts.
type FieldDiff struct {
	Field   string `json:"field"`
	Left    string `json:"left"`
	Right   string `json:"right"`
	Differs bool   `json:"differs"`
}
