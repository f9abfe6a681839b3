package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestExtractCost tests cost normalisation across raw formats
func TestExtractCost(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		expected float64
	}{
		{"rupee with thousands separator", "₹4,500", 4500},
		{"dollar with decimals", "$1,299.99", 1299.99},
		{"plain integer string", "250", 250},
		{"prefix with dot", "Rs. 4,500", 4500},
		{"trailing currency code", "3000 INR", 3000},
		{"float value", 12.5, 12.5},
		{"int64 value", int64(900), 900},
		{"no digits", "call for price", 0},
		{"empty", "", 0},
		{"nil", nil, 0},
		{"negative float", -5.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ExtractCost(tt.raw), 1e-9)
		})
	}
}

// TestExtractStock tests stock normalisation across raw formats
func TestExtractStock(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		expected int
	}{
		{"numeric string", "12", 12},
		{"with unit", "15 units", 15},
		{"first integer wins", "3 boxes of 10", 3},
		{"int64", int64(42), 42},
		{"float truncates", 7.9, 7},
		{"text only", "out of stock", 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractStock(tt.raw))
		})
	}
}

func TestSearchableText(t *testing.T) {
	p := Part{
		FieldPartNumber:   "ENG-123-ABC",
		FieldPartName:     "Engine Mount",
		FieldSystem:       "ENGINE",
		FieldManufacturer: "Bosch",
		FieldCost:         "₹4,500",
		"unrelated":       "ignored",
	}

	assert.Equal(t, "engine mount engine bosch eng 123 abc", SearchableText(p))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "brake pad set 2 pcs", CleanText("  Brake-Pad   Set (2 pcs)!  "))
	assert.Equal(t, "", CleanText("---"))
}

func TestNormaliseRecord(t *testing.T) {
	p := Part{
		FieldPartNumber: "BRK-001",
		FieldPartName:   "Brake Pad Set",
		FieldSystem:     "BRAKES",
		FieldCost:       "₹2,500",
		FieldStock:      "15",
	}

	r := NormaliseRecord(7, p)

	assert.Equal(t, 7, r.Index)
	assert.InDelta(t, 2500.0, r.CostNumeric, 1e-9)
	assert.Equal(t, 15, r.StockNumeric)
	assert.Equal(t, "BRK-001", r.PartNumber())
	assert.Equal(t, "BRAKES", r.System())
	assert.Equal(t, IdentityKey{PartNumber: "BRK-001", PartName: "Brake Pad Set"}, r.IdentityKey())
}

func TestPart_String(t *testing.T) {
	p := Part{"s": "x", "i": int64(3), "f": 2.5, "n": nil}

	assert.Equal(t, "x", p.String("s"))
	assert.Equal(t, "3", p.String("i"))
	assert.Equal(t, "2.5", p.String("f"))
	assert.Equal(t, "", p.String("n"))
	assert.Equal(t, "", p.String("missing"))
}

func TestCatalogHash_ChangesWithContent(t *testing.T) {
	a := []Record{NormaliseRecord(0, Part{FieldPartName: "Engine Mount"})}
	b := []Record{NormaliseRecord(0, Part{FieldPartName: "Engine Mount"})}
	c := []Record{NormaliseRecord(0, Part{FieldPartName: "Engine Mounts"})}

	assert.Equal(t, CatalogHash(a), CatalogHash(b))
	assert.NotEqual(t, CatalogHash(a), CatalogHash(c))
}

func TestAvailabilityFor(t *testing.T) {
	assert.Equal(t, AvailabilityHigh, AvailabilityFor(51))
	assert.Equal(t, AvailabilityMedium, AvailabilityFor(50))
	assert.Equal(t, AvailabilityMedium, AvailabilityFor(11))
	assert.Equal(t, AvailabilityLow, AvailabilityFor(10))
	assert.Equal(t, AvailabilityLow, AvailabilityFor(1))
	assert.Equal(t, AvailabilityOutOfStock, AvailabilityFor(0))
}

func TestContainsPhrase(t *testing.T) {
	assert.True(t, ContainsPhrase("Cheap BRAKES under 3000", "brakes"))
	assert.True(t, ContainsPhrase("stainless-steel bolts", "Stainless Steel"))
	assert.False(t, ContainsPhrase("cheap brake components", "BRAKES"))
	assert.False(t, ContainsPhrase("anything", ""))
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("the"))
	assert.False(t, IsStopWord("brake"))
	assert.False(t, IsStopWord("like"))
}
