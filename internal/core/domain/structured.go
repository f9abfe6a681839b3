package domain

import "fmt"

// Column is a column of the structured index.
type Column string

// Structured index columns. Text columns mirror the part record keys.
const (
	ColumnPartNumber     Column = FieldPartNumber
	ColumnPartName       Column = FieldPartName
	ColumnSystem         Column = FieldSystem
	ColumnSubSystem      Column = FieldSubSystem
	ColumnManufacturer   Column = FieldManufacturer
	ColumnMaterial       Column = FieldMaterial
	ColumnPartType       Column = FieldPartType
	ColumnFeature        Column = FieldFeature
	ColumnOEMPartNumber  Column = FieldOEMPartNumber
	ColumnCostNumeric    Column = "cost_numeric"
	ColumnStockNumeric   Column = "stock_numeric"
	ColumnSearchableText Column = "searchable_text"
)

// IsNumeric returns true for the normalised numeric columns.
func (c Column) IsNumeric() bool {
	return c == ColumnCostNumeric || c == ColumnStockNumeric
}

// IsValid returns true if the column exists in the structured index.
func (c Column) IsValid() bool {
	switch c {
	case ColumnPartNumber, ColumnPartName, ColumnSystem, ColumnSubSystem,
		ColumnManufacturer, ColumnMaterial, ColumnPartType, ColumnFeature,
		ColumnOEMPartNumber, ColumnCostNumeric, ColumnStockNumeric, ColumnSearchableText:
		return true
	default:
		return false
	}
}

// Operator is a predicate comparison.
type Operator string

// Predicate operators.
const (
	// OpEq is exact equality.
	OpEq Operator = "eq"
	// OpEqFold is case-insensitive equality on text columns.
	OpEqFold Operator = "eq_fold"
	// OpContains is a case-insensitive substring match on text columns.
	OpContains Operator = "contains"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
)

func (o Operator) textOnly() bool {
	return o == OpEqFold || o == OpContains
}

func (o Operator) numericOnly() bool {
	return o == OpLt || o == OpLte || o == OpGt || o == OpGte
}

// Predicate is a single column condition.
type Predicate struct {
	Column Column
	Op     Operator
	Value  any
}

// Validate rejects unknown columns, unknown operators and values whose type
// does not fit the column.
func (p Predicate) Validate() error {
	if !p.Column.IsValid() {
		return fmt.Errorf("%w: unknown column %q", ErrInvalidPredicate, p.Column)
	}
	switch p.Op {
	case OpEq, OpEqFold, OpContains, OpLt, OpLte, OpGt, OpGte:
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidPredicate, p.Op)
	}
	if p.Column.IsNumeric() {
		if p.Op.textOnly() {
			return fmt.Errorf("%w: operator %s needs a text column, got %s", ErrInvalidPredicate, p.Op, p.Column)
		}
		switch p.Value.(type) {
		case int, int64, float64:
		default:
			return fmt.Errorf("%w: column %s needs a numeric value, got %T", ErrInvalidPredicate, p.Column, p.Value)
		}
		return nil
	}
	if p.Op.numericOnly() {
		return fmt.Errorf("%w: operator %s needs a numeric column, got %s", ErrInvalidPredicate, p.Op, p.Column)
	}
	if _, ok := p.Value.(string); !ok {
		return fmt.Errorf("%w: column %s needs a string value, got %T", ErrInvalidPredicate, p.Column, p.Value)
	}
	return nil
}

// Order is a sort key.
type Order struct {
	Column Column
	Desc   bool

	// ZeroLast sorts zero values after all others.
	ZeroLast bool
}

// StructuredQuery is a filtered scan of the structured index.
// Where predicates are ANDed. Each AnyOf group is an OR of its predicates,
// and groups are ANDed with Where. Rows matching Prefer sort before all
// others, then OrderBy applies, then record position. A zero Limit means
// no limit.
type StructuredQuery struct {
	Where   []Predicate
	AnyOf   [][]Predicate
	Prefer  *Predicate
	OrderBy []Order
	Limit   int
}

// Validate checks every predicate and sort key.
func (q StructuredQuery) Validate() error {
	for _, p := range q.Where {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	for _, group := range q.AnyOf {
		for _, p := range group {
			if err := p.Validate(); err != nil {
				return err
			}
		}
	}
	if q.Prefer != nil {
		if err := q.Prefer.Validate(); err != nil {
			return err
		}
	}
	for _, o := range q.OrderBy {
		if !o.Column.IsValid() {
			return fmt.Errorf("%w: unknown order column %q", ErrInvalidPredicate, o.Column)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidPredicate, q.Limit)
	}
	return nil
}

// AggregateFunc is an aggregate measure function.
type AggregateFunc string

// Aggregate functions.
const (
	AggAvg   AggregateFunc = "avg"
	AggMin   AggregateFunc = "min"
	AggMax   AggregateFunc = "max"
	AggCount AggregateFunc = "count"
)

// Measure is one aggregate output column.
type Measure struct {
	Func AggregateFunc

	// Column is the measured column; empty counts rows.
	Column Column

	// SkipZero ignores zero values, which stand for unknown numerics.
	SkipZero bool
}

// Name returns the key of the measure in an AggregateRow.
func (m Measure) Name() string {
	if m.Column == "" {
		return string(m.Func)
	}
	return string(m.Func) + "_" + string(m.Column)
}

// Validate checks the measure.
func (m Measure) Validate() error {
	switch m.Func {
	case AggAvg, AggMin, AggMax:
		if !m.Column.IsNumeric() {
			return fmt.Errorf("%w: %s needs a numeric column, got %q", ErrInvalidPredicate, m.Func, m.Column)
		}
	case AggCount:
		if m.Column != "" && !m.Column.IsValid() {
			return fmt.Errorf("%w: unknown count column %q", ErrInvalidPredicate, m.Column)
		}
	default:
		return fmt.Errorf("%w: unknown aggregate %q", ErrInvalidPredicate, m.Func)
	}
	return nil
}

// AggregateQuery computes measures, optionally grouped by a column.
// Where and AnyOf restrict rows as in StructuredQuery. Without GroupBy
// exactly one row is returned.
type AggregateQuery struct {
	GroupBy  Column
	Measures []Measure
	Where    []Predicate
	AnyOf    [][]Predicate
}

// Validate checks the query.
func (q AggregateQuery) Validate() error {
	if q.GroupBy != "" && (!q.GroupBy.IsValid() || q.GroupBy.IsNumeric()) {
		return fmt.Errorf("%w: cannot group by %q", ErrInvalidPredicate, q.GroupBy)
	}
	if len(q.Measures) == 0 {
		return fmt.Errorf("%w: no measures", ErrInvalidPredicate)
	}
	for _, m := range q.Measures {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	for _, p := range q.Where {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	for _, group := range q.AnyOf {
		for _, p := range group {
			if err := p.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// AggregateRow is one group of an aggregate result.
type AggregateRow struct {
	Group  string
	Values map[string]float64
}
