// Package errs defines the sentinel errors returned by vecopt packages.
//
// Callers should compare with errors.Is, since most errors are wrapped with
// additional context before they are returned.
package errs

import "errors"

// Job validation errors.
var (
	// ErrInvalidDimension is returned when the chunk width is less than 1.
	ErrInvalidDimension = errors.New("invalid dimension: must be >= 1")
	// ErrInvalidBatchSize is returned when the batch size is negative.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be >= 0")
)

// Configuration errors.
var (
	ErrInvalidWorkers       = errors.New("invalid worker count: must be >= 1")
	ErrInvalidRoundingMode  = errors.New("invalid rounding mode")
	ErrInvalidCacheCapacity = errors.New("invalid cache capacity: must be >= 1")
	ErrInvalidCompression   = errors.New("invalid compression type")
	ErrNilStore             = errors.New("cache store must not be nil")
)

// ErrCorruptCacheEntry is returned when a cached payload cannot be decoded.
var ErrCorruptCacheEntry = errors.New("corrupt cache entry")
