package memory

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore holds the normalised catalog in load order.
// It is immutable after construction, so readers need no locking.
type RecordStore struct {
	records  []domain.Record
	byNumber map[string]int
	byFolded map[string]int
}

// NewRecordStore validates and normalises parts. Every part needs a
// part_number and a part_name, and part numbers must be unique.
func NewRecordStore(parts []domain.Part) (*RecordStore, error) {
	s := &RecordStore{
		records:  make([]domain.Record, 0, len(parts)),
		byNumber: make(map[string]int, len(parts)),
		byFolded: make(map[string]int, len(parts)),
	}

	for i, p := range parts {
		pn := strings.TrimSpace(p.String(domain.FieldPartNumber))
		if pn == "" {
			return nil, fmt.Errorf("record %d: %w: missing %s", i, domain.ErrInvalidRecord, domain.FieldPartNumber)
		}
		if strings.TrimSpace(p.String(domain.FieldPartName)) == "" {
			return nil, fmt.Errorf("record %d (%s): %w: missing %s",
				i, pn, domain.ErrInvalidRecord, domain.FieldPartName)
		}
		if prev, dup := s.byNumber[pn]; dup {
			return nil, fmt.Errorf("record %d: %w: %s (first at %d)", i, domain.ErrDuplicatePartNumber, pn, prev)
		}

		s.byNumber[pn] = i
		if _, seen := s.byFolded[strings.ToLower(pn)]; !seen {
			s.byFolded[strings.ToLower(pn)] = i
		}
		s.records = append(s.records, domain.NormaliseRecord(i, p.Clone()))
	}
	return s, nil
}

// Len returns the number of records.
func (s *RecordStore) Len() int {
	return len(s.records)
}

// Get returns the record at position index.
func (s *RecordStore) Get(index int) (domain.Record, error) {
	if index < 0 || index >= len(s.records) {
		return domain.Record{}, fmt.Errorf("record %d: %w", index, domain.ErrNotFound)
	}
	return s.records[index], nil
}

// FindByPartNumber looks up a part number exactly, then ignoring case.
func (s *RecordStore) FindByPartNumber(partNumber string) (domain.Record, bool) {
	partNumber = strings.TrimSpace(partNumber)
	if i, ok := s.byNumber[partNumber]; ok {
		return s.records[i], true
	}
	if i, ok := s.byFolded[strings.ToLower(partNumber)]; ok {
		return s.records[i], true
	}
	return domain.Record{}, false
}

// All returns every record in store order.
func (s *RecordStore) All() []domain.Record {
	return s.records
}
