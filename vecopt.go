// Package vecopt transforms batches of float64 samples.
//
// A sample sequence is cut into fixed-width vectors and every element goes
// through the same pipeline:
//
//  1. quantize to two decimal places
//  2. tanh
//  3. scale by 0.95
//  4. clamp to [-1, 1]
//
// Vectors are processed in parallel and the output keeps the input order, so
// result[i] depends only on samples[i].
//
// # Basic Usage
//
//	values, err := vecopt.Optimize([]float64{0.5, -0.3, 0.8}, 1)
//
// For worker pool size, rounding mode, caching and performance metrics, build
// an engine:
//
//	eng, _ := vecopt.NewEngine(
//	    engine.WithWorkers(4),
//	    engine.WithRoundingMode(format.RoundHalfEven),
//	)
//	res, _ := eng.Process(ctx, engine.Job{Samples: samples, Dimension: 8})
//	fmt.Println(res.Metrics.Throughput)
//
// # Package Structure
//
//   - chunk: split a sequence into fixed-width vectors
//   - transform: the per-element pipeline
//   - engine: worker pool, ordering and metrics
//   - cache: memoized results over an LRU or Redis store
//   - server: HTTP transport
package vecopt

import (
	"context"
	"sync"

	"github.com/arloliu/vecopt/cache"
	"github.com/arloliu/vecopt/engine"
)

var defaultEngine = sync.OnceValues(func() (*engine.Engine, error) {
	return engine.New()
})

// NewEngine creates an engine. It is a shortcut for engine.New.
//
// Available options:
//   - engine.WithWorkers(n)
//   - engine.WithRoundingMode(format.RoundHalfAwayFromZero|RoundHalfEven)
//   - engine.WithCache(c)
func NewEngine(opts ...engine.Option) (*engine.Engine, error) {
	return engine.New(opts...)
}

// NewCachedEngine creates an engine backed by an in-memory LRU result cache
// holding up to capacity results.
func NewCachedEngine(capacity int, opts ...engine.Option) (*engine.Engine, error) {
	store, err := cache.NewMemoryStore(capacity)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(store)
	if err != nil {
		return nil, err
	}

	return engine.New(append([]engine.Option{engine.WithCache(c)}, opts...)...)
}

// Optimize transforms samples in vectors of the given dimension using a
// shared engine with default settings and no cache.
func Optimize(samples []float64, dimension int) ([]float64, error) {
	return OptimizeContext(context.Background(), samples, dimension)
}

// OptimizeContext is Optimize with cancellation.
func OptimizeContext(ctx context.Context, samples []float64, dimension int) ([]float64, error) {
	eng, err := defaultEngine()
	if err != nil {
		return nil, err
	}

	return eng.Transform(ctx, engine.Job{Samples: samples, Dimension: dimension})
}
