package sqlite

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

func testRecords() []domain.Record {
	parts := []domain.Part{
		{"part_number": "ENG-123-ABC", "part_name": "Engine Mount", "system": "Engine", "manufacturer": "Acme", "cost": "1500", "stock": "12"},
		{"part_number": "ENG-200", "part_name": "Oil Filter", "system": "Engine", "manufacturer": "Zenith", "cost": "300", "stock": "2"},
		{"part_number": "ENG-300", "part_name": "Timing Belt", "system": "Engine", "manufacturer": "Acme", "cost": "", "stock": "0"},
		{"part_number": "BRK-001", "part_name": "Brake Pad", "system": "Brakes", "manufacturer": "Zenith", "cost": "800", "stock": "40"},
		{"part_number": "BRK-002", "part_name": "Brake Disc", "system": "Brakes", "manufacturer": "acme", "cost": "1200", "stock": "5"},
		{"part_number": "XENG-123-ABC-2", "part_name": "Engine Mount Kit", "manufacturer": "Orbit", "cost": "2000", "stock": "1"},
	}
	records := make([]domain.Record, len(parts))
	for i, p := range parts {
		records[i] = domain.NormaliseRecord(i, p)
	}
	return records
}

// setupTestStore builds an index over testRecords.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(context.Background(), testRecords())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestNewStore_Success(t *testing.T) {
	store := setupTestStore(t)

	assert.Contains(t, store.Name(), "parts-")

	var version int
	err := store.reader.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	var n int
	require.NoError(t, store.reader.QueryRow("SELECT COUNT(*) FROM parts").Scan(&n))
	assert.Equal(t, 6, n)
}

func TestNewStore_IsolatedDatabases(t *testing.T) {
	a := setupTestStore(t)
	b, err := NewStore(context.Background(), testRecords()[:1])
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.Name(), b.Name())

	all, err := b.Search(context.Background(), domain.StructuredQuery{})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, all)
}

func TestNewStore_Empty(t *testing.T) {
	store, err := NewStore(context.Background(), nil)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Search(context.Background(), domain.StructuredQuery{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ReaderIsReadOnly(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.reader.Exec("DELETE FROM parts")

	assert.Error(t, err)
}

func TestStore_Search(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query domain.StructuredQuery
		want  []int
	}{
		{
			name:  "all in position order",
			query: domain.StructuredQuery{},
			want:  []int{0, 1, 2, 3, 4, 5},
		},
		{
			name: "system equality",
			query: domain.StructuredQuery{Where: []domain.Predicate{
				{Column: domain.ColumnSystem, Op: domain.OpEq, Value: "Brakes"},
			}},
			want: []int{3, 4},
		},
		{
			name: "case-insensitive equality",
			query: domain.StructuredQuery{Where: []domain.Predicate{
				{Column: domain.ColumnManufacturer, Op: domain.OpEqFold, Value: "ACME"},
			}},
			want: []int{0, 2, 4},
		},
		{
			name: "searchable text contains",
			query: domain.StructuredQuery{Where: []domain.Predicate{
				{Column: domain.ColumnSearchableText, Op: domain.OpContains, Value: "Brake"},
			}},
			want: []int{3, 4},
		},
		{
			name: "numeric range ANDed",
			query: domain.StructuredQuery{Where: []domain.Predicate{
				{Column: domain.ColumnCostNumeric, Op: domain.OpGt, Value: 0.0},
				{Column: domain.ColumnCostNumeric, Op: domain.OpLte, Value: 1200},
			}},
			want: []int{1, 3, 4},
		},
		{
			name: "any-of group",
			query: domain.StructuredQuery{AnyOf: [][]domain.Predicate{{
				{Column: domain.ColumnPartNumber, Op: domain.OpEq, Value: "BRK-001"},
				{Column: domain.ColumnPartNumber, Op: domain.OpEq, Value: "ENG-200"},
			}}},
			want: []int{1, 3},
		},
		{
			name: "groups ANDed with where",
			query: domain.StructuredQuery{
				Where: []domain.Predicate{{Column: domain.ColumnStockNumeric, Op: domain.OpGte, Value: 5}},
				AnyOf: [][]domain.Predicate{
					{{Column: domain.ColumnSystem, Op: domain.OpEqFold, Value: "engine"}},
					{{Column: domain.ColumnManufacturer, Op: domain.OpEqFold, Value: "acme"}},
				},
			},
			want: []int{0},
		},
		{
			name: "cost ascending zero last",
			query: domain.StructuredQuery{
				Where:   []domain.Predicate{{Column: domain.ColumnSystem, Op: domain.OpEq, Value: "Engine"}},
				OrderBy: []domain.Order{{Column: domain.ColumnCostNumeric, ZeroLast: true}},
			},
			want: []int{1, 0, 2},
		},
		{
			name: "stock descending with limit",
			query: domain.StructuredQuery{
				OrderBy: []domain.Order{{Column: domain.ColumnStockNumeric, Desc: true}},
				Limit:   2,
			},
			want: []int{3, 0},
		},
		{
			name: "preferred exact match first",
			query: domain.StructuredQuery{
				AnyOf: [][]domain.Predicate{{
					{Column: domain.ColumnPartNumber, Op: domain.OpContains, Value: "ENG-123-ABC"},
				}},
				Prefer: &domain.Predicate{Column: domain.ColumnPartNumber, Op: domain.OpEqFold, Value: "eng-123-abc"},
			},
			want: []int{0, 5},
		},
		{
			name: "no match is not an error",
			query: domain.StructuredQuery{Where: []domain.Predicate{
				{Column: domain.ColumnSystem, Op: domain.OpEq, Value: "Hydraulics"},
			}},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_Search_PreferWithLimit(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.Search(context.Background(), domain.StructuredQuery{
		AnyOf: [][]domain.Predicate{{
			{Column: domain.ColumnSearchableText, Op: domain.OpContains, Value: "engine mount"},
		}},
		Prefer: &domain.Predicate{Column: domain.ColumnPartNumber, Op: domain.OpEqFold, Value: "XENG-123-ABC-2"},
		Limit:  1,
	})

	require.NoError(t, err)
	assert.Equal(t, []int{5}, got)
}

func TestStore_Search_ValuesAreBound(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.Search(context.Background(), domain.StructuredQuery{Where: []domain.Predicate{
		{Column: domain.ColumnPartName, Op: domain.OpContains, Value: "'; DROP TABLE parts; --"},
	}})

	require.NoError(t, err)
	assert.Empty(t, got)

	all, err := store.Search(context.Background(), domain.StructuredQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestStore_Search_InvalidPredicate(t *testing.T) {
	store := setupTestStore(t)

	tests := []domain.StructuredQuery{
		{Where: []domain.Predicate{{Column: "price; DROP", Op: domain.OpEq, Value: "x"}}},
		{Where: []domain.Predicate{{Column: domain.ColumnCostNumeric, Op: domain.OpContains, Value: "1"}}},
		{Where: []domain.Predicate{{Column: domain.ColumnSystem, Op: domain.OpLt, Value: 3}}},
		{OrderBy: []domain.Order{{Column: "nope"}}},
		{Limit: -1},
	}
	for _, q := range tests {
		_, err := store.Search(context.Background(), q)
		assert.ErrorIs(t, err, domain.ErrInvalidPredicate)
	}
}

func TestStore_Aggregate_GroupBySystem(t *testing.T) {
	store := setupTestStore(t)
	measures := []domain.Measure{
		{Func: domain.AggCount},
		{Func: domain.AggAvg, Column: domain.ColumnCostNumeric, SkipZero: true},
		{Func: domain.AggMin, Column: domain.ColumnCostNumeric, SkipZero: true},
		{Func: domain.AggMax, Column: domain.ColumnCostNumeric, SkipZero: true},
	}

	rows, err := store.Aggregate(context.Background(), domain.AggregateQuery{
		GroupBy:  domain.ColumnSystem,
		Measures: measures,
		AnyOf: [][]domain.Predicate{{
			{Column: domain.ColumnSystem, Op: domain.OpEq, Value: "Engine"},
			{Column: domain.ColumnSystem, Op: domain.OpEq, Value: "Brakes"},
		}},
	})

	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Brakes", rows[0].Group)
	assert.InDelta(t, 2, rows[0].Values["count"], 1e-9)
	assert.InDelta(t, 1000, rows[0].Values["avg_cost_numeric"], 1e-9)

	// The unknown cost of ENG-300 is skipped but the row is counted
	assert.Equal(t, "Engine", rows[1].Group)
	assert.InDelta(t, 3, rows[1].Values["count"], 1e-9)
	assert.InDelta(t, 900, rows[1].Values["avg_cost_numeric"], 1e-9)
	assert.InDelta(t, 300, rows[1].Values["min_cost_numeric"], 1e-9)
	assert.InDelta(t, 1500, rows[1].Values["max_cost_numeric"], 1e-9)
}

func TestStore_Aggregate_Ungrouped(t *testing.T) {
	store := setupTestStore(t)
	count := domain.Measure{Func: domain.AggCount}

	rows, err := store.Aggregate(context.Background(), domain.AggregateQuery{
		Measures: []domain.Measure{count},
		Where: []domain.Predicate{
			{Column: domain.ColumnStockNumeric, Op: domain.OpGt, Value: 0},
			{Column: domain.ColumnStockNumeric, Op: domain.OpLte, Value: domain.LowStockThreshold},
		},
	})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 3, rows[0].Values["count"], 1e-9)
}

func TestStore_Aggregate_EmptySelectionYieldsZeroRow(t *testing.T) {
	store := setupTestStore(t)
	avg := domain.Measure{Func: domain.AggAvg, Column: domain.ColumnCostNumeric, SkipZero: true}

	rows, err := store.Aggregate(context.Background(), domain.AggregateQuery{
		Measures: []domain.Measure{avg},
		Where:    []domain.Predicate{{Column: domain.ColumnSystem, Op: domain.OpEq, Value: "None"}},
	})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].Values[avg.Name()])
}

func TestStore_Aggregate_Invalid(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Aggregate(context.Background(), domain.AggregateQuery{GroupBy: domain.ColumnSystem})
	assert.ErrorIs(t, err, domain.ErrInvalidPredicate)

	_, err = store.Aggregate(context.Background(), domain.AggregateQuery{
		GroupBy:  domain.ColumnCostNumeric,
		Measures: []domain.Measure{{Func: domain.AggCount}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPredicate)
}

func TestStore_Distinct(t *testing.T) {
	store := setupTestStore(t)

	systems, err := store.Distinct(context.Background(), domain.ColumnSystem)
	require.NoError(t, err)
	assert.Equal(t, []string{"Brakes", "Engine"}, systems)

	makers, err := store.Distinct(context.Background(), domain.ColumnManufacturer)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Orbit", "Zenith", "acme"}, makers)

	materials, err := store.Distinct(context.Background(), domain.ColumnMaterial)
	require.NoError(t, err)
	assert.NotNil(t, materials)
	assert.Empty(t, materials)

	_, err = store.Distinct(context.Background(), domain.ColumnCostNumeric)
	assert.ErrorIs(t, err, domain.ErrInvalidPredicate)
}

func TestStore_Close(t *testing.T) {
	store, err := NewStore(context.Background(), testRecords())
	require.NoError(t, err)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err = store.Search(context.Background(), domain.StructuredQuery{})
	assert.ErrorIs(t, err, domain.ErrIndexClosed)
	_, err = store.Distinct(context.Background(), domain.ColumnSystem)
	assert.ErrorIs(t, err, domain.ErrIndexClosed)
}

func TestStore_Search_CanceledContext(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Search(ctx, domain.StructuredQuery{})

	assert.Error(t, err)
}

func TestStore_ConcurrentQueries(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.Search(ctx, domain.StructuredQuery{
				Where: []domain.Predicate{{Column: domain.ColumnSystem, Op: domain.OpEq, Value: "Engine"}},
			})
			if err != nil {
				errs <- err
				return
			}
			if len(got) != 3 {
				errs <- assert.AnError
			}
			if _, err := store.Distinct(ctx, domain.ColumnSystem); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
