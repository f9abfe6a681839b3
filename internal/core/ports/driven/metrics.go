package driven

import (
	"time"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// QueryMetrics records engine activity. Optional; nil disables recording.
type QueryMetrics interface {
	// ObserveQuery records one completed query.
	ObserveQuery(strategy domain.Strategy, results int, elapsed time.Duration, err error)

	// ObserveFollowUp records one follow-up answer.
	ObserveFollowUp(kind domain.FollowUpType)

	// SetCatalogSize publishes the number of loaded records.
	SetCatalogSize(n int)
}
