// Package engine runs the transformation pipeline over chunked sample
// sequences on a fixed worker pool.
//
// A job is validated, split into chunks of Dimension samples, and dispatched
// in tasks of BatchSize consecutive chunks. Each chunk is written to its own
// output slot, so the result is assembled in input order no matter which
// worker finishes first, and is bit-identical for any worker count or batch
// size.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/vecopt/cache"
	"github.com/arloliu/vecopt/chunk"
	"github.com/arloliu/vecopt/errs"
	"github.com/arloliu/vecopt/internal/options"
	"github.com/arloliu/vecopt/metrics"
	"github.com/arloliu/vecopt/transform"
)

// Job is one unit of work submitted to the engine.
type Job struct {
	// Samples is the input sequence. It is only read.
	Samples []float64
	// Dimension is the chunk width; it must be at least 1.
	Dimension int
	// BatchSize is the number of chunks per dispatched task. Zero picks a
	// size from the worker count. It never changes the result.
	BatchSize int
}

// Validate checks the job before any work is done.
func (j Job) Validate() error {
	if err := chunk.Validate(j.Dimension); err != nil {
		return err
	}
	if j.BatchSize < 0 {
		return fmt.Errorf("%w: got %d", errs.ErrInvalidBatchSize, j.BatchSize)
	}

	return nil
}

// Result is the output of a processed job.
type Result struct {
	// Values has one transformed value per input sample, in input order.
	Values []float64
	// Metrics describes the processing run.
	Metrics metrics.Metrics
	// Cached reports whether Values came from the result cache.
	Cached bool
}

// Engine transforms jobs. It holds no per-job state and is safe for
// concurrent use.
type Engine struct {
	cfg      Config
	pipeline *transform.Pipeline
}

// New creates an Engine.
//
// Available options:
//   - WithWorkers(n): worker pool size, default runtime.NumCPU()
//   - WithRoundingMode(mode): quantization rounding, default half away from zero
//   - WithCache(c): memoize results
func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	pipeline, err := transform.NewPipeline(cfg.Rounding)
	if err != nil {
		return nil, err
	}

	return &Engine{cfg: *cfg, pipeline: pipeline}, nil
}

// Workers returns the worker pool size.
func (e *Engine) Workers() int {
	return e.cfg.Workers
}

// Cache returns the result cache, or nil when caching is disabled.
func (e *Engine) Cache() *cache.Cache {
	return e.cfg.Cache
}

// Process validates job, transforms it and measures the run.
//
// Invalid jobs fail with ErrInvalidDimension or ErrInvalidBatchSize before
// any work starts. An empty sample sequence yields an empty result. If ctx is
// done before all chunks are dispatched, Process returns ctx.Err() and no
// partial result.
func (e *Engine) Process(ctx context.Context, job Job) (*Result, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	var (
		values []float64
		cached bool
		err    error
	)
	if e.cfg.Cache != nil && len(job.Samples) > 0 {
		key := cache.KeyFor(job.Samples, job.Dimension, e.pipeline.RoundingMode())
		values, cached, err = e.cfg.Cache.Do(ctx, key, func(ctx context.Context) ([]float64, error) {
			return e.run(ctx, job)
		})
	} else {
		values, err = e.run(ctx, job)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		Values:  values,
		Metrics: metrics.Since(start, len(job.Samples)),
		Cached:  cached,
	}, nil
}

// Transform runs job without the cache and without measuring it.
func (e *Engine) Transform(ctx context.Context, job Job) ([]float64, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	return e.run(ctx, job)
}

// batchSize returns the number of chunks per task.
func (e *Engine) batchSize(numChunks, requested int) int {
	if requested > 0 {
		return min(requested, numChunks)
	}
	target := e.cfg.Workers * tasksPerWorker

	return max(1, (numChunks+target-1)/target)
}

func (e *Engine) run(ctx context.Context, job Job) ([]float64, error) {
	chunks, err := chunk.Split(job.Samples, job.Dimension)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(job.Samples))
	if len(chunks) == 0 {
		return out, nil
	}

	batch := e.batchSize(len(chunks), job.BatchSize)
	numTasks := (len(chunks) + batch - 1) / batch

	// runTask transforms chunks [t*batch, (t+1)*batch) into their slots.
	runTask := func(t int) {
		first := t * batch
		last := min(first+batch, len(chunks))
		for i := first; i < last; i++ {
			offset := i * job.Dimension
			src := chunks[i]
			e.pipeline.Chunk(out[offset:offset+len(src)], src)
		}
	}

	workers := min(e.cfg.Workers, numTasks)
	if workers == 1 {
		for t := range numTasks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			runTask(t)
		}

		return out, nil
	}

	tasks := make(chan int, workers*2)
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for t := range tasks {
				if ctx.Err() != nil {
					continue
				}
				runTask(t)
			}
		}()
	}

feed:
	for t := range numTasks {
		select {
		case <-ctx.Done():
			break feed
		case tasks <- t:
		}
	}
	close(tasks)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
