package testutil

import (
	"context"
	"hash/fnv"
	"strings"
	"sync/atomic"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
)

// Ensure HashEmbedder implements the interface.
var _ driven.EmbeddingService = (*HashEmbedder)(nil)

// HashDimensions is the vector size produced by HashEmbedder.
const HashDimensions = 64

// HashEmbedder is a deterministic bag-of-words embedder: each cleaned token
// increments one hashed dimension. Texts sharing words are close.
type HashEmbedder struct {
	// Err, when set, is returned by every call.
	Err error

	calls atomic.Int64
	texts atomic.Int64
}

// Embed embeds one text.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h.calls.Add(1)
	h.texts.Add(1)
	if h.Err != nil {
		return nil, h.Err
	}
	return HashVector(text), nil
}

// EmbedBatch embeds texts in one call.
func (h *HashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	h.calls.Add(1)
	h.texts.Add(int64(len(texts)))
	if h.Err != nil {
		return nil, h.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = HashVector(t)
	}
	return out, nil
}

// Calls returns the number of Embed and EmbedBatch calls.
func (h *HashEmbedder) Calls() int { return int(h.calls.Load()) }

// Texts returns the number of texts embedded.
func (h *HashEmbedder) Texts() int { return int(h.texts.Load()) }

func (h *HashEmbedder) Dimensions() int              { return HashDimensions }
func (h *HashEmbedder) ModelName() string            { return "hash-bow" }
func (h *HashEmbedder) Ping(_ context.Context) error { return h.Err }
func (h *HashEmbedder) Close() error                 { return nil }

// HashVector returns the bag-of-words vector of text. Dimension 0 carries
// a small constant so no vector is zero.
func HashVector(text string) []float32 {
	v := make([]float32, HashDimensions)
	v[0] = 0.01
	for _, tok := range strings.Fields(domain.CleanText(text)) {
		f := fnv.New32a()
		_, _ = f.Write([]byte(tok))
		v[1+int(f.Sum32()%(HashDimensions-1))]++
	}
	return v
}
