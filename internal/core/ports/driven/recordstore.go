package driven

import "github.com/custodia-labs/partsearch/internal/core/domain"

// RecordStore holds the canonical ordered list of part records.
// It is read-only after load and safe for concurrent readers.
type RecordStore interface {
	// Len returns the number of records.
	Len() int

	// Get returns the record at position index.
	// Returns domain.ErrNotFound when index is out of range.
	Get(index int) (domain.Record, error)

	// FindByPartNumber returns the record with the given part number.
	FindByPartNumber(partNumber string) (domain.Record, bool)

	// All returns every record in store order.
	// Callers must not modify the returned slice.
	All() []domain.Record
}
