// Package config loads vecoptd settings from the environment.
//
// Variables may also come from a dotenv file; real environment variables win
// over file entries.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/arloliu/vecopt/format"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "VECOPT_"

// Config is the process configuration.
type Config struct {
	Addr            string
	Workers         int
	Rounding        format.RoundingMode
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration

	CacheEnabled     bool
	CacheCapacity    int
	CacheCompression format.CompressionType

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	LogLevel  string
	LogFormat string
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Addr:             "0.0.0.0:8083",
		Workers:          runtime.NumCPU(),
		Rounding:         format.RoundHalfAwayFromZero,
		MaxBodyBytes:     64 << 20,
		ShutdownTimeout:  10 * time.Second,
		CacheEnabled:     true,
		CacheCapacity:    1000,
		CacheCompression: format.CompressionS2,
		RedisTTL:         time.Hour,
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// Load reads the optional dotenv file at path (skipped when empty or
// missing) and then the process environment.
func Load(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from a variable lookup function such as
// os.LookupEnv. Names are given without EnvPrefix.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	p.str("ADDR", &cfg.Addr)
	p.integer("WORKERS", &cfg.Workers)
	p.rounding("ROUNDING", &cfg.Rounding)
	p.int64("MAX_BODY_BYTES", &cfg.MaxBodyBytes)
	p.duration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)
	p.boolean("CACHE_ENABLED", &cfg.CacheEnabled)
	p.integer("CACHE_CAPACITY", &cfg.CacheCapacity)
	p.compression("CACHE_COMPRESSION", &cfg.CacheCompression)
	p.str("REDIS_ADDR", &cfg.RedisAddr)
	p.str("REDIS_PASSWORD", &cfg.RedisPassword)
	p.integer("REDIS_DB", &cfg.RedisDB)
	p.duration("REDIS_TTL", &cfg.RedisTTL)
	p.str("LOG_LEVEL", &cfg.LogLevel)
	p.str("LOG_FORMAT", &cfg.LogFormat)

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks value ranges that parsing alone cannot.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New(EnvPrefix+"ADDR must not be empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf(EnvPrefix+"WORKERS must be >= 1, got %d", c.Workers))
	}
	if c.MaxBodyBytes < 1 {
		errs = append(errs, fmt.Errorf(EnvPrefix+"MAX_BODY_BYTES must be >= 1, got %d", c.MaxBodyBytes))
	}
	if c.CacheEnabled && c.RedisAddr == "" && c.CacheCapacity < 1 {
		errs = append(errs, fmt.Errorf(EnvPrefix+"CACHE_CAPACITY must be >= 1, got %d", c.CacheCapacity))
	}
	if c.RedisTTL < 0 {
		errs = append(errs, fmt.Errorf(EnvPrefix+"REDIS_TTL must not be negative, got %s", c.RedisTTL))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf(EnvPrefix+"LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) get(name string) (string, bool) {
	v, ok := p.lookup(EnvPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)

	return v, v != ""
}

func (p *parser) fail(name, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s%s=%q: %w", EnvPrefix, name, value, err))
}

func (p *parser) str(name string, dst *string) {
	if v, ok := p.get(name); ok {
		*dst = v
	}
}

func (p *parser) integer(name string, dst *int) {
	if v, ok := p.get(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = n
	}
}

func (p *parser) int64(name string, dst *int64) {
	if v, ok := p.get(name); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = n
	}
}

func (p *parser) boolean(name string, dst *bool) {
	if v, ok := p.get(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = b
	}
}

func (p *parser) duration(name string, dst *time.Duration) {
	if v, ok := p.get(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = d
	}
}

func (p *parser) rounding(name string, dst *format.RoundingMode) {
	if v, ok := p.get(name); ok {
		mode, err := format.ParseRoundingMode(v)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = mode
	}
}

func (p *parser) compression(name string, dst *format.CompressionType) {
	if v, ok := p.get(name); ok {
		ct, err := format.ParseCompressionType(v)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = ct
	}
}
