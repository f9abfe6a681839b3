package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/partsearch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.StructuredIndex = (*Store)(nil)

// textColumns are the text columns projected from each record, in insert order.
var textColumns = []domain.Column{
	domain.ColumnPartNumber,
	domain.ColumnPartName,
	domain.ColumnSystem,
	domain.ColumnSubSystem,
	domain.ColumnManufacturer,
	domain.ColumnMaterial,
	domain.ColumnPartType,
	domain.ColumnFeature,
	domain.ColumnOEMPartNumber,
}

// Store is the SQLite-backed structured index.
type Store struct {
	writer *sql.DB
	reader *sql.DB
	// keepalive pins one connection so the in-memory database outlives
	// idle connection churn.
	keepalive *sql.Conn
	name      string
	closed    atomic.Bool
}

// NewStore creates an in-memory index and loads records into it.
func NewStore(ctx context.Context, records []domain.Record) (*Store, error) {
	name := "parts-" + uuid.New().String()
	dsn := "file:" + name + "?mode=memory&cache=shared"

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	writer.SetMaxOpenConns(1)

	keepalive, err := writer.Conn(ctx)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{writer: writer, keepalive: keepalive, name: name}

	if err := s.migrate(ctx, migrations.FS); err != nil {
		s.closeAll()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := s.load(ctx, records); err != nil {
		s.closeAll()
		return nil, err
	}

	reader, err := sql.Open("sqlite", dsn+"&_pragma=query_only(1)")
	if err != nil {
		s.closeAll()
		return nil, fmt.Errorf("opening reader: %w", err)
	}
	reader.SetMaxOpenConns(runtime.NumCPU())
	s.reader = reader

	return s, nil
}

// Name returns the in-memory database name.
func (s *Store) Name() string {
	return s.name
}

// Close releases both pools. The database is discarded.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.closeAll()
}

func (s *Store) closeAll() error {
	var firstErr error
	if s.reader != nil {
		if err := s.reader.Close(); err != nil {
			firstErr = err
		}
	}
	if s.keepalive != nil {
		if err := s.keepalive.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.writer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// migrate runs all pending migrations.
func (s *Store) migrate(ctx context.Context, fsys embed.FS) error {
	_, err := s.keepalive.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.keepalive.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_parts.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.keepalive.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.keepalive.ExecContext(ctx,
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// load inserts every record in one transaction.
func (s *Store) load(ctx context.Context, records []domain.Record) error {
	tx, err := s.keepalive.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	cols := make([]string, 0, len(textColumns)+4)
	for _, c := range textColumns {
		cols = append(cols, string(c))
	}
	cols = append(cols, "cost_numeric", "stock_numeric", "searchable_text", "data")

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO parts (idx, %s) VALUES (?%s)",
		strings.Join(cols, ", "), strings.Repeat(", ?", len(cols)),
	))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		data, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("marshalling record %d: %w", rec.Index, err)
		}

		args := make([]any, 0, len(cols)+1)
		args = append(args, rec.Index)
		for _, c := range textColumns {
			args = append(args, rec.Fields.String(string(c)))
		}
		args = append(args, rec.CostNumeric, rec.StockNumeric, rec.SearchableText, string(data))

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting record %d: %w", rec.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

// Search runs a filtered scan and returns record positions in query order.
func (s *Store) Search(ctx context.Context, q domain.StructuredQuery) ([]int, error) {
	if s.closed.Load() {
		return nil, domain.ErrIndexClosed
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var b queryBuilder
	b.WriteString("SELECT idx FROM parts")
	b.where(q.Where, q.AnyOf)

	b.WriteString(" ORDER BY ")
	if q.Prefer != nil {
		b.WriteString("CASE WHEN ")
		b.predicate(*q.Prefer)
		b.WriteString(" THEN 0 ELSE 1 END, ")
	}
	for _, o := range q.OrderBy {
		if o.ZeroLast {
			fmt.Fprintf(&b, "CASE WHEN %s = 0 THEN 1 ELSE 0 END, ", o.Column)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, "%s %s, ", o.Column, dir)
	}
	b.WriteString("idx ASC")

	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		b.args = append(b.args, q.Limit)
	}

	rows, err := s.reader.QueryContext(ctx, b.String(), b.args...)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrInternalIndex, err)
	}
	defer rows.Close()

	var indices []int //nolint:prealloc // size unknown from query
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %w", domain.ErrInternalIndex, err)
		}
		indices = append(indices, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrInternalIndex, err)
	}
	return indices, nil
}

// Aggregate computes grouped measures. Groups are returned in ascending
// order of the group value; zero-valued measures stand for no data.
func (s *Store) Aggregate(ctx context.Context, q domain.AggregateQuery) ([]domain.AggregateRow, error) {
	if s.closed.Load() {
		return nil, domain.ErrIndexClosed
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var b queryBuilder
	b.WriteString("SELECT ")
	if q.GroupBy != "" {
		b.WriteString(string(q.GroupBy))
	} else {
		b.WriteString("''")
	}
	for _, m := range q.Measures {
		b.WriteString(", ")
		b.WriteString(measureSQL(m))
	}
	b.WriteString(" FROM parts")
	b.where(q.Where, q.AnyOf)
	if q.GroupBy != "" {
		fmt.Fprintf(&b, " GROUP BY %[1]s ORDER BY %[1]s", q.GroupBy)
	}

	rows, err := s.reader.QueryContext(ctx, b.String(), b.args...)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate: %w", domain.ErrInternalIndex, err)
	}
	defer rows.Close()

	var out []domain.AggregateRow
	for rows.Next() {
		var group string
		values := make([]float64, len(q.Measures))
		dest := make([]any, 0, len(values)+1)
		dest = append(dest, &group)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: scanning aggregate: %w", domain.ErrInternalIndex, err)
		}

		row := domain.AggregateRow{Group: group, Values: make(map[string]float64, len(q.Measures))}
		for i, m := range q.Measures {
			row.Values[m.Name()] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: aggregate: %w", domain.ErrInternalIndex, err)
	}
	return out, nil
}

// Distinct returns the sorted non-empty values of a text column.
func (s *Store) Distinct(ctx context.Context, column domain.Column) ([]string, error) {
	if s.closed.Load() {
		return nil, domain.ErrIndexClosed
	}
	if !column.IsValid() || column.IsNumeric() {
		return nil, fmt.Errorf("%w: cannot list distinct %q", domain.ErrInvalidPredicate, column)
	}

	rows, err := s.reader.QueryContext(ctx, fmt.Sprintf(
		"SELECT DISTINCT %[1]s FROM parts WHERE %[1]s <> '' ORDER BY %[1]s", column))
	if err != nil {
		return nil, fmt.Errorf("%w: distinct: %w", domain.ErrInternalIndex, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: scanning distinct: %w", domain.ErrInternalIndex, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: distinct: %w", domain.ErrInternalIndex, err)
	}
	return values, nil
}

// measureSQL renders one measure. Missing data aggregates to 0.
func measureSQL(m domain.Measure) string {
	col := "*"
	if m.Column != "" {
		col = string(m.Column)
		if m.SkipZero && m.Column.IsNumeric() {
			col = fmt.Sprintf("NULLIF(%s, 0)", m.Column)
		}
	}
	switch m.Func {
	case domain.AggCount:
		return fmt.Sprintf("COUNT(%s)", col)
	case domain.AggAvg:
		return fmt.Sprintf("COALESCE(AVG(%s), 0)", col)
	case domain.AggMin:
		return fmt.Sprintf("COALESCE(MIN(%s), 0)", col)
	default:
		return fmt.Sprintf("COALESCE(MAX(%s), 0)", col)
	}
}

// queryBuilder accumulates SQL and bind arguments. Column names come from
// validated domain.Column values; all user values are bound.
type queryBuilder struct {
	strings.Builder
	args []any
}

func (b *queryBuilder) where(all []domain.Predicate, anyOf [][]domain.Predicate) {
	first := true
	clause := func() {
		if first {
			b.WriteString(" WHERE ")
			first = false
		} else {
			b.WriteString(" AND ")
		}
	}

	for _, p := range all {
		clause()
		b.predicate(p)
	}
	for _, group := range anyOf {
		if len(group) == 0 {
			continue
		}
		clause()
		b.WriteString("(")
		for i, p := range group {
			if i > 0 {
				b.WriteString(" OR ")
			}
			b.predicate(p)
		}
		b.WriteString(")")
	}
}

func (b *queryBuilder) predicate(p domain.Predicate) {
	switch p.Op {
	case domain.OpEq:
		fmt.Fprintf(b, "%s = ?", p.Column)
	case domain.OpEqFold:
		fmt.Fprintf(b, "LOWER(%s) = LOWER(?)", p.Column)
	case domain.OpContains:
		fmt.Fprintf(b, "instr(LOWER(%s), LOWER(?)) > 0", p.Column)
	case domain.OpLt:
		fmt.Fprintf(b, "%s < ?", p.Column)
	case domain.OpLte:
		fmt.Fprintf(b, "%s <= ?", p.Column)
	case domain.OpGt:
		fmt.Fprintf(b, "%s > ?", p.Column)
	case domain.OpGte:
		fmt.Fprintf(b, "%s >= ?", p.Column)
	}
	b.args = append(b.args, p.Value)
}
