package engine

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/vecopt/cache"
	"github.com/arloliu/vecopt/errs"
	"github.com/arloliu/vecopt/format"
)

func newEngine(t testing.TB, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)

	return e
}

func randomSamples(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * 2
	}

	return out
}

func requireBitIdentical(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, math.Float64bits(want[i]), math.Float64bits(got[i]), "index %d", i)
	}
}

func TestNew(t *testing.T) {
	e := newEngine(t)
	require.GreaterOrEqual(t, e.Workers(), 1)
	require.Nil(t, e.Cache())

	e = newEngine(t, WithWorkers(3), WithRoundingMode(format.RoundHalfEven))
	require.Equal(t, 3, e.Workers())

	_, err := New(WithWorkers(0))
	require.ErrorIs(t, err, errs.ErrInvalidWorkers)

	_, err = New(WithRoundingMode(format.RoundingMode(42)))
	require.ErrorIs(t, err, errs.ErrInvalidRoundingMode)
}

func TestProcess_ConcreteScenario(t *testing.T) {
	e := newEngine(t)
	res, err := e.Process(context.Background(), Job{
		Samples:   []float64{0.5, -0.3, 0.8, -0.9, 0.1},
		Dimension: 1,
	})
	require.NoError(t, err)
	require.Len(t, res.Values, 5)
	require.InDelta(t, 0.4390, res.Values[0], 1e-4)
	for _, v := range res.Values {
		require.GreaterOrEqual(t, v, -1.0)
		require.LessOrEqual(t, v, 1.0)
	}
	require.False(t, res.Cached)
}

func TestProcess_InvalidJob(t *testing.T) {
	e := newEngine(t)

	res, err := e.Process(context.Background(), Job{Samples: []float64{1, 2}, Dimension: 0})
	require.ErrorIs(t, err, errs.ErrInvalidDimension)
	require.Nil(t, res)

	res, err = e.Process(context.Background(), Job{Samples: []float64{1, 2}, Dimension: -3})
	require.ErrorIs(t, err, errs.ErrInvalidDimension)
	require.Nil(t, res)

	res, err = e.Process(context.Background(), Job{Samples: []float64{1, 2}, Dimension: 1, BatchSize: -1})
	require.ErrorIs(t, err, errs.ErrInvalidBatchSize)
	require.Nil(t, res)

	_, err = e.Transform(context.Background(), Job{Dimension: 0})
	require.ErrorIs(t, err, errs.ErrInvalidDimension)
}

func TestProcess_EmptyInput(t *testing.T) {
	e := newEngine(t)
	for _, samples := range [][]float64{nil, {}} {
		res, err := e.Process(context.Background(), Job{Samples: samples, Dimension: 4})
		require.NoError(t, err)
		require.NotNil(t, res.Values)
		require.Empty(t, res.Values)
		require.GreaterOrEqual(t, res.Metrics.ProcessingTimeMs, 0.0)
		require.Equal(t, 0.0, res.Metrics.MemoryUsageMb)
		require.Equal(t, 0.0, res.Metrics.Throughput)
	}
}

func TestProcess_LengthAndRange(t *testing.T) {
	e := newEngine(t, WithWorkers(4))
	for _, n := range []int{1, 2, 7, 100, 1023, 4096} {
		for _, dim := range []int{1, 3, 16, 5000} {
			samples := randomSamples(n, int64(n*dim))
			res, err := e.Process(context.Background(), Job{Samples: samples, Dimension: dim})
			require.NoError(t, err)
			require.Len(t, res.Values, n)
			for _, v := range res.Values {
				require.GreaterOrEqual(t, v, -1.0)
				require.LessOrEqual(t, v, 1.0)
			}
		}
	}
}

func TestProcess_ElementPurity(t *testing.T) {
	e := newEngine(t, WithWorkers(4))
	samples := randomSamples(257, 3)
	base, err := e.Transform(context.Background(), Job{Samples: samples, Dimension: 8})
	require.NoError(t, err)

	perm := rand.New(rand.NewSource(11)).Perm(len(samples))
	permuted := make([]float64, len(samples))
	for i, p := range perm {
		permuted[i] = samples[p]
	}
	got, err := e.Transform(context.Background(), Job{Samples: permuted, Dimension: 8})
	require.NoError(t, err)

	for i, p := range perm {
		require.Equal(t, math.Float64bits(base[p]), math.Float64bits(got[i]))
	}
}

func TestProcess_WorkerCountInvariance(t *testing.T) {
	samples := randomSamples(10007, 5)
	ctx := context.Background()

	want, err := newEngine(t, WithWorkers(1)).Transform(ctx, Job{Samples: samples, Dimension: 13})
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 8, 64} {
		got, err := newEngine(t, WithWorkers(workers)).Transform(ctx, Job{Samples: samples, Dimension: 13})
		require.NoError(t, err)
		requireBitIdentical(t, want, got)
	}
}

func TestProcess_DimensionAndBatchInvariance(t *testing.T) {
	samples := randomSamples(999, 9)
	e := newEngine(t, WithWorkers(4))
	ctx := context.Background()

	want, err := e.Transform(ctx, Job{Samples: samples, Dimension: 1})
	require.NoError(t, err)

	for _, dim := range []int{2, 7, 100, 999, 5000} {
		for _, batch := range []int{0, 1, 3, 1000} {
			got, err := e.Transform(ctx, Job{Samples: samples, Dimension: dim, BatchSize: batch})
			require.NoError(t, err)
			requireBitIdentical(t, want, got)
		}
	}
}

func TestProcess_SpecialValues(t *testing.T) {
	e := newEngine(t)
	res, err := e.Process(context.Background(), Job{
		Samples:   []float64{math.NaN(), math.Inf(1), math.Inf(-1), math.MaxFloat64},
		Dimension: 2,
	})
	require.NoError(t, err)
	require.True(t, math.IsNaN(res.Values[0]))
	require.Equal(t, 0.95, res.Values[1])
	require.Equal(t, -0.95, res.Values[2])
	require.Equal(t, 0.95, res.Values[3])
}

func TestProcess_RoundingMode(t *testing.T) {
	ctx := context.Background()
	job := Job{Samples: []float64{0.125}, Dimension: 1}

	away, err := newEngine(t).Transform(ctx, job)
	require.NoError(t, err)
	even, err := newEngine(t, WithRoundingMode(format.RoundHalfEven)).Transform(ctx, job)
	require.NoError(t, err)

	require.Equal(t, math.Tanh(0.13)*0.95, away[0])
	require.Equal(t, math.Tanh(0.12)*0.95, even[0])
}

func TestProcess_DoesNotModifyInput(t *testing.T) {
	samples := randomSamples(64, 1)
	snapshot := append([]float64(nil), samples...)

	_, err := newEngine(t, WithWorkers(4)).Process(context.Background(), Job{Samples: samples, Dimension: 5})
	require.NoError(t, err)
	require.Equal(t, snapshot, samples)
}

func TestProcess_Metrics(t *testing.T) {
	res, err := newEngine(t).Process(context.Background(), Job{Samples: randomSamples(131072, 2), Dimension: 64})
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.Metrics.ProcessingTimeMs, 0.0)
	require.InDelta(t, 1.0, res.Metrics.MemoryUsageMb, 1e-12)
	require.Greater(t, res.Metrics.Throughput, 0.0)
	require.False(t, math.IsInf(res.Metrics.Throughput, 0))
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		res, err := newEngine(t, WithWorkers(workers)).Process(ctx, Job{Samples: randomSamples(1000, 1), Dimension: 1})
		require.ErrorIs(t, err, context.Canceled)
		require.Nil(t, res)
	}
}

func TestProcess_WithCache(t *testing.T) {
	store, err := cache.NewMemoryStore(8)
	require.NoError(t, err)
	c, err := cache.New(store)
	require.NoError(t, err)

	e := newEngine(t, WithCache(c), WithWorkers(2))
	require.Same(t, c, e.Cache())
	job := Job{Samples: randomSamples(500, 4), Dimension: 10}

	first, err := e.Process(context.Background(), job)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := e.Process(context.Background(), job)
	require.NoError(t, err)
	require.True(t, second.Cached)
	requireBitIdentical(t, first.Values, second.Values)

	t.Run("empty input bypasses cache", func(t *testing.T) {
		res, err := e.Process(context.Background(), Job{Dimension: 1})
		require.NoError(t, err)
		require.False(t, res.Cached)
		require.Equal(t, 1, store.Len())
	})
}

func TestProcess_SharedCacheAcrossRoundingModes(t *testing.T) {
	store, err := cache.NewMemoryStore(8)
	require.NoError(t, err)
	c, err := cache.New(store)
	require.NoError(t, err)

	away := newEngine(t, WithCache(c), WithRoundingMode(format.RoundHalfAwayFromZero))
	even := newEngine(t, WithCache(c), WithRoundingMode(format.RoundHalfEven))
	job := Job{Samples: []float64{0.125, 0.375}, Dimension: 1}

	awayRes, err := away.Process(context.Background(), job)
	require.NoError(t, err)
	evenRes, err := even.Process(context.Background(), job)
	require.NoError(t, err)
	require.False(t, evenRes.Cached)
	require.Equal(t, 2, store.Len())

	uncached, err := newEngine(t, WithRoundingMode(format.RoundHalfEven)).Transform(context.Background(), job)
	require.NoError(t, err)
	requireBitIdentical(t, uncached, evenRes.Values)
	require.NotEqual(t, awayRes.Values[0], evenRes.Values[0])

	again, err := even.Process(context.Background(), job)
	require.NoError(t, err)
	require.True(t, again.Cached)
	requireBitIdentical(t, evenRes.Values, again.Values)
}

func TestProcess_HugeDimension(t *testing.T) {
	for _, workers := range []int{1, 2} {
		e := newEngine(t, WithWorkers(workers))
		res, err := e.Process(context.Background(), Job{Samples: []float64{0.5, 0.1}, Dimension: math.MaxInt})
		require.NoError(t, err)
		require.Len(t, res.Values, 2)
		require.InDelta(t, 0.4390, res.Values[0], 1e-4)

		res, err = e.Process(context.Background(), Job{Samples: []float64{0.5, 0.1}, Dimension: math.MaxInt, BatchSize: math.MaxInt})
		require.NoError(t, err)
		require.Len(t, res.Values, 2)
	}
}

func TestProcess_Concurrent(t *testing.T) {
	e := newEngine(t, WithWorkers(4))
	samples := randomSamples(2048, 8)
	want, err := e.Transform(context.Background(), Job{Samples: samples, Dimension: 32})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(dim int) {
			defer wg.Done()
			res, err := e.Process(context.Background(), Job{Samples: samples, Dimension: dim})
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, want, res.Values)
		}(i + 1)
	}
	wg.Wait()
}

func TestBatchSize(t *testing.T) {
	e := newEngine(t, WithWorkers(2))
	require.Equal(t, 1, e.batchSize(5, 0))
	require.Equal(t, 13, e.batchSize(100, 0))
	require.Equal(t, 3, e.batchSize(100, 3))
	require.Equal(t, 5, e.batchSize(5, 50))
}

func BenchmarkProcess(b *testing.B) {
	samples := randomSamples(1<<16, 1)
	for _, workers := range []int{1, 4} {
		e := newEngine(b, WithWorkers(workers))
		b.Run("workers", func(b *testing.B) {
			b.SetBytes(int64(len(samples) * 8))
			for b.Loop() {
				_, _ = e.Process(context.Background(), Job{Samples: samples, Dimension: 256})
			}
		})
	}
}
