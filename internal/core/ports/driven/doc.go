// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the engine to function:
//
//   - CatalogLoader: Yields the raw part records at startup
//   - RecordStore: Ordered, immutable record storage
//   - StructuredIndex: Filtered scans, aggregates and distinct values (SQLite)
//   - Ranker: Similarity ranking. The lexical TF-IDF ranker is always available.
//   - Vocabulary: Prefix completion over the lexical vocabulary
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the engine degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, the vector ranker is disabled.
//   - VectorIndex: Approximate nearest neighbour search over embeddings (HNSW).
//   - EmbeddingCache: Content-addressed embedding cache (Badger).
//   - QueryMetrics: Query counters and latencies (Prometheus).
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
