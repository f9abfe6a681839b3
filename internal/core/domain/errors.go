package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidQuery indicates an empty query or an out-of-range limit.
	// It is the only error kind attributable to the caller.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidPredicate indicates a malformed structured index predicate.
	ErrInvalidPredicate = errors.New("invalid predicate")

	// ErrInvalidRecord indicates a catalog record lacks a required key.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrDuplicatePartNumber indicates two catalog records share a part number.
	ErrDuplicatePartNumber = errors.New("duplicate part number")

	// ErrIndexUnavailable indicates a selected index cannot serve requests.
	// The vector index degrades to the lexical index when this occurs.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrInternalIndex indicates an unexpected failure inside an index.
	ErrInternalIndex = errors.New("internal index error")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexClosed indicates an index has been closed.
	ErrIndexClosed = errors.New("index closed")
)

// Stable machine-readable internal error codes.
const (
	CodeRetrievalFailed  = "retrieval_failed"
	CodeEnrichmentFailed = "enrichment_failed"
	CodeIndexError       = "index_error"
)

// InternalError is the user-visible form of an unrecovered failure.
// Error never includes the cause; Unwrap exposes it for logging.
type InternalError struct {
	Code    string
	Message string
	Err     error
}

// NewInternalError wraps err with a stable code and a short message.
func NewInternalError(code, message string, err error) *InternalError {
	return &InternalError{Code: code, Message: message, Err: err}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// IsCallerError reports whether err was caused by invalid caller input.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}
