package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Well-known part record keys.
const (
	FieldPartNumber    = "part_number"
	FieldPartName      = "part_name"
	FieldSystem        = "system"
	FieldSubSystem     = "sub_system"
	FieldManufacturer  = "manufacturer"
	FieldMaterial      = "material"
	FieldPartType      = "part_type"
	FieldFeature       = "feature"
	FieldCost          = "cost"
	FieldStock         = "stock"
	FieldOEMPartNumber = "oem_part_number"
	FieldDescription   = "description"
	FieldApplication   = "application"
)

// SearchableFields lists the fields concatenated into a record's searchable text,
// in concatenation order.
var SearchableFields = []string{
	FieldPartName,
	FieldPartType,
	FieldSystem,
	FieldSubSystem,
	FieldManufacturer,
	FieldMaterial,
	FieldFeature,
	FieldPartNumber,
	FieldOEMPartNumber,
	FieldDescription,
	FieldApplication,
}

// Part is a raw part record as yielded by a catalog loader.
// Values are scalars: string, int64 or float64. Any key may be absent.
type Part map[string]any

// String returns the value of key formatted as a string, or "" when absent.
func (p Part) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Clone returns a shallow copy of the record.
func (p Part) Clone() Part {
	out := make(Part, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Record is a part record held by the record store together with the
// normalised views derived from it at load time.
type Record struct {
	// Index is the stable position of the record in the store.
	Index int

	// Fields holds the original record.
	Fields Part

	// CostNumeric is the normalised cost, 0 when extraction failed.
	CostNumeric float64

	// StockNumeric is the normalised stock level, 0 when extraction failed.
	StockNumeric int

	// SearchableText is the cleaned concatenation of SearchableFields.
	SearchableText string
}

// PartNumber returns the record's part number.
func (r Record) PartNumber() string { return r.Fields.String(FieldPartNumber) }

// PartName returns the record's part name.
func (r Record) PartName() string { return r.Fields.String(FieldPartName) }

// System returns the record's top-level system.
func (r Record) System() string { return r.Fields.String(FieldSystem) }

// Manufacturer returns the record's manufacturer.
func (r Record) Manufacturer() string { return r.Fields.String(FieldManufacturer) }

// IdentityKey returns the key used to deduplicate results.
func (r Record) IdentityKey() IdentityKey {
	return IdentityKey{PartNumber: r.PartNumber(), PartName: r.PartName()}
}

// IdentityKey identifies a record for deduplication purposes.
type IdentityKey struct {
	PartNumber string
	PartName   string
}

var (
	nonNumericPattern = regexp.MustCompile(`[^0-9.]`)
	decimalPattern    = regexp.MustCompile(`\d+(?:\.\d+)?`)
	integerPattern    = regexp.MustCompile(`\d+`)
	nonAlnumPattern   = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// NormaliseRecord derives the normalised views of a raw part.
// It is the only place cost, stock and searchable text are computed.
func NormaliseRecord(index int, p Part) Record {
	return Record{
		Index:          index,
		Fields:         p,
		CostNumeric:    ExtractCost(p[FieldCost]),
		StockNumeric:   ExtractStock(p[FieldStock]),
		SearchableText: SearchableText(p),
	}
}

// ExtractCost strips every character that is not a digit or a dot and
// returns the first decimal number found, or 0.
func ExtractCost(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		if t < 0 {
			return 0
		}
		return t
	case int64:
		if t < 0 {
			return 0
		}
		return float64(t)
	case int:
		if t < 0 {
			return 0
		}
		return float64(t)
	}
	stripped := nonNumericPattern.ReplaceAllString(Part{"v": v}.String("v"), "")
	match := decimalPattern.FindString(stripped)
	if match == "" {
		return 0
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return f
}

// ExtractStock returns the first integer found in the raw value, or 0.
func ExtractStock(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case int64:
		if t < 0 {
			return 0
		}
		return int(t)
	case int:
		if t < 0 {
			return 0
		}
		return t
	case float64:
		if t < 0 {
			return 0
		}
		return int(t)
	}
	match := integerPattern.FindString(Part{"v": v}.String("v"))
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

// SearchableText builds the cleaned, lowercased concatenation of the
// searchable fields of p.
func SearchableText(p Part) string {
	parts := make([]string, 0, len(SearchableFields))
	for _, field := range SearchableFields {
		if s := p.String(field); s != "" {
			parts = append(parts, s)
		}
	}
	return CleanText(strings.Join(parts, " "))
}

// CleanText lowercases s, replaces runs of non-alphanumeric characters with a
// single space and trims the result.
func CleanText(s string) string {
	return strings.TrimSpace(nonAlnumPattern.ReplaceAllString(strings.ToLower(s), " "))
}

// CatalogHash returns a content hash over the searchable text of records.
// Any change to indexed content changes the hash.
func CatalogHash(records []Record) string {
	h := sha256.New()
	for _, r := range records {
		h.Write([]byte(r.SearchableText))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
