package engine

import (
	"fmt"
	"runtime"

	"github.com/arloliu/vecopt/cache"
	"github.com/arloliu/vecopt/errs"
	"github.com/arloliu/vecopt/format"
	"github.com/arloliu/vecopt/internal/options"
)

// tasksPerWorker is how many tasks the automatic batch size aims to give each
// worker, so uneven task costs still balance out.
const tasksPerWorker = 4

// Config holds Engine settings.
type Config struct {
	// Workers is the size of the worker pool. Defaults to runtime.NumCPU().
	Workers int
	// Rounding is the quantization rounding mode. Defaults to
	// format.RoundHalfAwayFromZero.
	Rounding format.RoundingMode
	// Cache memoizes results when non-nil.
	Cache *cache.Cache
}

func defaultConfig() *Config {
	return &Config{
		Workers:  runtime.NumCPU(),
		Rounding: format.RoundHalfAwayFromZero,
	}
}

// Option configures an Engine.
type Option = options.Option[*Config]

// WithWorkers sets the number of worker goroutines. One worker runs every
// chunk on the calling goroutine.
func WithWorkers(n int) Option {
	return options.New(func(cfg *Config) error {
		if n < 1 {
			return fmt.Errorf("%w: got %d", errs.ErrInvalidWorkers, n)
		}
		cfg.Workers = n

		return nil
	})
}

// WithRoundingMode sets the quantization rounding mode.
func WithRoundingMode(mode format.RoundingMode) Option {
	return options.New(func(cfg *Config) error {
		if !mode.Valid() {
			return fmt.Errorf("%w: %d", errs.ErrInvalidRoundingMode, mode)
		}
		cfg.Rounding = mode

		return nil
	})
}

// WithCache enables result memoization. A nil cache disables it.
func WithCache(c *cache.Cache) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Cache = c
	})
}
