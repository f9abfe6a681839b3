package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

func sampleParts() []domain.Part {
	return []domain.Part{
		{"part_number": "ENG-123-ABC", "part_name": "Engine Mount", "system": "Engine", "cost": "₹1,250.50", "stock": "12 units"},
		{"part_number": "BRK-001", "part_name": "Brake Pad", "system": "Brakes", "cost": int64(800), "stock": int64(3)},
		{"part_number": "SUS-9", "part_name": "Shock Absorber", "cost": "n/a"},
	}
}

func TestNewRecordStore_Success(t *testing.T) {
	store, err := NewRecordStore(sampleParts())

	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())

	rec, err := store.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Index)
	assert.Equal(t, "ENG-123-ABC", rec.PartNumber())
	assert.InDelta(t, 1250.5, rec.CostNumeric, 1e-9)
	assert.Equal(t, 12, rec.StockNumeric)
	assert.Equal(t, "engine mount engine eng 123 abc", rec.SearchableText)

	rec, err = store.Get(2)
	require.NoError(t, err)
	assert.Zero(t, rec.CostNumeric)
	assert.Zero(t, rec.StockNumeric)
}

func TestNewRecordStore_Empty(t *testing.T) {
	store, err := NewRecordStore(nil)

	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.All())
}

func TestNewRecordStore_Validation(t *testing.T) {
	tests := []struct {
		name    string
		parts   []domain.Part
		wantErr error
	}{
		{
			name:    "missing part number",
			parts:   []domain.Part{{"part_name": "Orphan"}},
			wantErr: domain.ErrInvalidRecord,
		},
		{
			name:    "blank part number",
			parts:   []domain.Part{{"part_number": "  ", "part_name": "Orphan"}},
			wantErr: domain.ErrInvalidRecord,
		},
		{
			name:    "missing part name",
			parts:   []domain.Part{{"part_number": "X-1"}},
			wantErr: domain.ErrInvalidRecord,
		},
		{
			name: "duplicate part number",
			parts: []domain.Part{
				{"part_number": "X-1", "part_name": "A"},
				{"part_number": "X-1", "part_name": "B"},
			},
			wantErr: domain.ErrDuplicatePartNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecordStore(tt.parts)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRecordStore_Get_OutOfRange(t *testing.T) {
	store, err := NewRecordStore(sampleParts())
	require.NoError(t, err)

	for _, idx := range []int{-1, 3, 100} {
		_, err := store.Get(idx)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestRecordStore_FindByPartNumber(t *testing.T) {
	store, err := NewRecordStore(sampleParts())
	require.NoError(t, err)

	rec, ok := store.FindByPartNumber("BRK-001")
	require.True(t, ok)
	assert.Equal(t, 1, rec.Index)

	rec, ok = store.FindByPartNumber(" eng-123-abc ")
	require.True(t, ok)
	assert.Equal(t, 0, rec.Index)

	_, ok = store.FindByPartNumber("NOPE-1")
	assert.False(t, ok)
}

func TestRecordStore_DoesNotAliasInput(t *testing.T) {
	parts := sampleParts()
	store, err := NewRecordStore(parts)
	require.NoError(t, err)

	parts[0]["part_name"] = "Changed"

	rec, err := store.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "Engine Mount", rec.PartName())
}

func TestRecordStore_ConcurrentReaders(t *testing.T) {
	store, err := NewRecordStore(sampleParts())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = store.Get(i % store.Len())
			_, _ = store.FindByPartNumber("BRK-001")
			_ = store.All()
		}(i)
	}
	wg.Wait()
}
