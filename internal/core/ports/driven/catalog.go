package driven

import (
	"context"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// CatalogLoader yields the raw part records of a catalog.
// All records are returned before the engine finishes initialisation.
type CatalogLoader interface {
	// Load reads every record, in catalog order.
	Load(ctx context.Context) ([]domain.Part, error)

	// Source describes where records come from (e.g. a file path).
	Source() string
}
