package cache

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/arloliu/vecopt/endian"
	"github.com/arloliu/vecopt/errs"
	"github.com/arloliu/vecopt/format"
	"github.com/arloliu/vecopt/internal/options"
)

// ComputeFunc produces the result for a missing key.
type ComputeFunc func(ctx context.Context) ([]float64, error)

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Errors  uint64 `json:"errors"`
	Entries int    `json:"entries,omitempty"`
}

// Cache memoizes results in a Store with single-flight de-duplication.
type Cache struct {
	store   Store
	payload *payloadCodec
	logger  *zap.Logger
	group   singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
	errors atomic.Uint64
}

// Config holds Cache settings before construction.
type Config struct {
	Compression format.CompressionType
	Engine      endian.EndianEngine
	Logger      *zap.Logger
}

// Option configures a Cache.
type Option = options.Option[*Config]

// WithCompression sets the codec used for new payloads. Defaults to S2.
// Unknown types make New fail with ErrInvalidCompression.
func WithCompression(compression format.CompressionType) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Compression = compression
	})
}

// WithBigEndian writes new payloads in big-endian byte order.
func WithBigEndian() Option {
	return options.NoError(func(cfg *Config) {
		cfg.Engine = endian.GetBigEndianEngine()
	})
}

// WithLogger sets the logger used to report store failures.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(cfg *Config) {
		if logger != nil {
			cfg.Logger = logger
		}
	})
}

// New creates a Cache over store.
func New(store Store, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, errs.ErrNilStore
	}

	cfg := &Config{
		Compression: format.CompressionS2,
		Engine:      endian.GetLittleEndianEngine(),
		Logger:      zap.NewNop(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	payload, err := newPayloadCodec(cfg.Compression, cfg.Engine)
	if err != nil {
		return nil, err
	}

	return &Cache{
		store:   store,
		payload: payload,
		logger:  cfg.Logger.Named("cache"),
	}, nil
}

type outcome struct {
	values []float64
	hit    bool
}

// Do returns the cached result for key, or runs compute and stores its result.
//
// Concurrent calls for the same key share one lookup and at most one
// computation. compute runs with a context that is not cancelled when the
// caller that started it goes away, so callers waiting on the same key still
// get the result; each caller stops waiting when its own ctx is done.
//
// The returned slice is owned by the caller. hit reports whether the value
// came from the store.
func (c *Cache) Do(ctx context.Context, key Key, compute ComputeFunc) (values []float64, hit bool, err error) {
	ch := c.group.DoChan(key.String(), func() (any, error) {
		detached := context.WithoutCancel(ctx)
		if cached, ok := c.load(detached, key); ok {
			return outcome{values: cached, hit: true}, nil
		}

		c.misses.Add(1)
		computed, err := compute(detached)
		if err != nil {
			return nil, err
		}
		c.save(detached, key, computed)

		return outcome{values: computed}, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		out, _ := res.Val.(outcome)
		if res.Shared {
			return slices.Clone(out.values), out.hit, nil
		}

		return out.values, out.hit, nil
	}
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	s := Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.errors.Load(),
	}
	if m, ok := c.store.(*MemoryStore); ok {
		s.Entries = m.Len()
	}

	return s
}

func (c *Cache) load(ctx context.Context, key Key) ([]float64, bool) {
	payload, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache lookup failed", zap.Stringer("key", key), zap.Error(err))

		return nil, false
	}
	if !ok {
		return nil, false
	}

	values, err := decodePayload(payload)
	if err != nil {
		c.errors.Add(1)
		c.logger.Warn("discarding undecodable cache entry", zap.Stringer("key", key), zap.Error(err))

		return nil, false
	}
	c.hits.Add(1)

	return values, true
}

func (c *Cache) save(ctx context.Context, key Key, values []float64) {
	payload, err := c.payload.encode(values)
	if err == nil {
		err = c.store.Set(ctx, key, payload)
	}
	if err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache store failed", zap.Stringer("key", key), zap.Error(fmt.Errorf("save: %w", err)))
	}
}
