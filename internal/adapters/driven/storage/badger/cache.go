// Package badger provides a content-addressed embedding cache on BadgerDB.
package badger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
	"github.com/custodia-labs/partsearch/internal/logger"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

const embeddingPrefix = "emb/"

// badgerLogger routes badger's output through the verbose-gated logger.
type badgerLogger struct{}

var _ badger.Logger = badgerLogger{}

func (badgerLogger) Errorf(msg string, items ...any)   { logger.Error("badger: %s", line(msg, items)) }
func (badgerLogger) Warningf(msg string, items ...any) { logger.Warn("badger: %s", line(msg, items)) }
func (badgerLogger) Infof(msg string, items ...any)    { logger.Debug("badger: %s", line(msg, items)) }
func (badgerLogger) Debugf(msg string, items ...any)   { logger.Debug("badger: %s", line(msg, items)) }

func line(msg string, items []any) string {
	return strings.TrimRight(fmt.Sprintf(msg, items...), "\n")
}

// EmbeddingCache stores vectors keyed by SHA-256 of model and text.
type EmbeddingCache struct {
	db *badger.DB
}

// Open opens the cache in dir, creating it if needed.
func Open(dir string) (*EmbeddingCache, error) {
	if dir == "" {
		return nil, errors.New("badger: cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return open(badger.DefaultOptions(dir))
}

// OpenInMemory opens a cache that lives only as long as the process.
func OpenInMemory() (*EmbeddingCache, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*EmbeddingCache, error) {
	opts.Logger = badgerLogger{}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &EmbeddingCache{db: db}, nil
}

// cacheKey addresses a vector by content so an edited text never hits.
func cacheKey(model, text string) []byte {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return append([]byte(embeddingPrefix), sum[:]...)
}

// Get returns the cached vector for model and text.
func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var vec []float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(model, text))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			vec, err = decodeVector(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return vec, true, nil
}

// Put stores the vector for model and text.
func (c *EmbeddingCache) Put(ctx context.Context, model, text string, embedding []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(model, text), encodeVector(embedding))
	})
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Close flushes and closes the database.
func (c *EmbeddingCache) Close() error {
	if c.db.IsClosed() {
		return nil
	}
	return c.db.Close()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector of %d bytes", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v, nil
}
