package driven

import "context"

// VectorIndex provides approximate nearest neighbour search over embeddings.
// Vectors are keyed by record position.
type VectorIndex interface {
	// Add inserts the vector for the record at id.
	Add(ctx context.Context, id int, embedding []float32) error

	// Search finds the k nearest neighbours to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Vector returns the stored vector for id.
	Vector(id int) ([]float32, bool)

	// Len returns the number of stored vectors.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched record position.
	ID int

	// Similarity is raw cosine similarity, or 1 - L2/2 for the L2 metric.
	Similarity float64
}

// EmbeddingCache stores embeddings keyed by model and text content.
// A changed text never hits a stale entry.
type EmbeddingCache interface {
	// Get returns the cached vector, if any.
	Get(ctx context.Context, model, text string) ([]float32, bool, error)

	// Put stores a vector.
	Put(ctx context.Context, model, text string, embedding []float32) error

	// Close releases resources.
	Close() error
}
