// Package chunk partitions a sample sequence into fixed-width vectors.
//
// Chunks are views into the caller's slice: no samples are copied. Each chunk
// has its capacity limited to its length, so appending to one chunk can never
// overwrite the next. Chunks must be treated as read-only.
package chunk

import (
	"fmt"

	"github.com/arloliu/vecopt/errs"
)

// Validate returns ErrInvalidDimension if dimension is less than 1.
func Validate(dimension int) error {
	if dimension < 1 {
		return fmt.Errorf("%w: got %d", errs.ErrInvalidDimension, dimension)
	}

	return nil
}

// Count returns the number of chunks a sequence of n samples splits into,
// ceil(n / dimension). The dimension must be valid.
func Count(n, dimension int) int {
	if n <= 0 {
		return 0
	}

	return (n-1)/dimension + 1
}

// Bounds returns the half-open sample range [start, end) of chunk i in a
// sequence of n samples. The final chunk is shorter when n is not a multiple
// of dimension.
func Bounds(n, dimension, i int) (start, end int) {
	start = i * dimension
	end = start + min(dimension, n-start)

	return start, end
}

// Split partitions samples into Count(len(samples), dimension) chunks in
// input order. Every chunk has exactly dimension samples except possibly
// the last, which holds the remainder.
//
// An empty input yields zero chunks and no error. A dimension below 1 fails
// with ErrInvalidDimension before any work is done.
func Split(samples []float64, dimension int) ([][]float64, error) {
	if err := Validate(dimension); err != nil {
		return nil, err
	}

	n := len(samples)
	chunks := make([][]float64, 0, Count(n, dimension))
	for i := range Count(n, dimension) {
		start, end := Bounds(n, dimension, i)
		chunks = append(chunks, samples[start:end:end])
	}

	return chunks, nil
}
