package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/partsearch/internal/adapters/driven/lexical/tfidf"
	"github.com/custodia-labs/partsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/partsearch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
)

var testTime = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func part(pn, name, system, manufacturer, material, cost, stock string) domain.Part {
	p := domain.Part{
		domain.FieldPartNumber:   pn,
		domain.FieldPartName:     name,
		domain.FieldSystem:       system,
		domain.FieldManufacturer: manufacturer,
		domain.FieldCost:         cost,
		domain.FieldStock:        stock,
	}
	if material != "" {
		p[domain.FieldMaterial] = material
	}
	return p
}

// testParts is a small catalog with known costs and stock.
//
//	0 BRK-001      BRAKES      2500  15
//	1 BRK-002      BRAKES      1500   0
//	2 BRK-003      BRAKES      4000   3
//	3 ENG-123-ABC  ENGINE      4500  12
//	4 ENG-200      ENGINE         -  60
//	5 SUS-010      SUSPENSION  6000   8
func testParts() []domain.Part {
	return []domain.Part{
		part("BRK-001", "Brake Pad Set", "BRAKES", "Brembo", "ceramic", "₹2,500", "15"),
		part("BRK-002", "Brake Pad Economy", "BRAKES", "Bosch", "steel", "₹1,500", "0"),
		part("BRK-003", "Brake Disc", "BRAKES", "Brembo", "cast iron", "₹4,000", "3"),
		part("ENG-123-ABC", "Engine Mount", "ENGINE", "Bosch", "rubber", "₹4,500", "12"),
		part("ENG-200", "Oil Filter", "ENGINE", "Mahle", "", "", "60"),
		part("SUS-010", "Shock Absorber", "SUSPENSION", "ZF", "steel", "₹6,000", "8"),
	}
}

type testEngine struct {
	records *memory.RecordStore
	index   driven.StructuredIndex
	lexical *tfidf.Index
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	return newTestEngineFrom(t, testParts())
}

func newTestEngineFrom(t *testing.T, parts []domain.Part) *testEngine {
	t.Helper()
	records, err := memory.NewRecordStore(parts)
	require.NoError(t, err)
	store, err := sqlite.NewStore(context.Background(), records.All())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &testEngine{
		records: records,
		index:   store,
		lexical: tfidf.NewIndex(records.All()),
	}
}

func (e *testEngine) service(t *testing.T, opts ...Option) *SearchService {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return testTime })}, opts...)
	s, err := NewSearchService(context.Background(), e.records, e.index, e.lexical, e.lexical, opts...)
	require.NoError(t, err)
	return s
}

func newTestService(t *testing.T, opts ...Option) *SearchService {
	t.Helper()
	return newTestEngine(t).service(t, opts...)
}

// partNumbers lists the part numbers of results in order.
func partNumbers(results []domain.EnrichedResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.PartNumber()
	}
	return out
}

var errIndexDown = errors.New("index down")

// failingIndex fails every Search while still answering Distinct.
type failingIndex struct {
	driven.StructuredIndex
}

func (f failingIndex) Search(context.Context, domain.StructuredQuery) ([]int, error) {
	return nil, errIndexDown
}

// failingRanker fails every ranking call.
type failingRanker struct{}

func (failingRanker) Name() string { return "broken" }

func (failingRanker) Rank(context.Context, string, int, float64) ([]domain.ScoredIndex, error) {
	return nil, errIndexDown
}

func (failingRanker) SimilarTo(context.Context, int, int, float64) ([]domain.ScoredIndex, error) {
	return nil, errIndexDown
}

// recordingMetrics counts observations.
type recordingMetrics struct {
	queries   []domain.Strategy
	errors    int
	followUps []domain.FollowUpType
	size      int
}

func (m *recordingMetrics) ObserveQuery(strategy domain.Strategy, _ int, _ time.Duration, err error) {
	m.queries = append(m.queries, strategy)
	if err != nil {
		m.errors++
	}
}

func (m *recordingMetrics) ObserveFollowUp(kind domain.FollowUpType) {
	m.followUps = append(m.followUps, kind)
}

func (m *recordingMetrics) SetCatalogSize(n int) { m.size = n }
