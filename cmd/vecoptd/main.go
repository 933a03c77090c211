// Command vecoptd serves the vector optimization engine over HTTP.
//
// Configuration comes from VECOPT_* environment variables, optionally seeded
// from a dotenv file given with -env.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arloliu/vecopt/cache"
	"github.com/arloliu/vecopt/engine"
	"github.com/arloliu/vecopt/internal/config"
	"github.com/arloliu/vecopt/server"
)

const redisPingTimeout = 3 * time.Second

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load; missing files are ignored")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vecoptd: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vecoptd: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("vecoptd exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	eng, closeStore, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	gin.SetMode(gin.ReleaseMode)
	srvOpts := []server.Option{
		server.WithLogger(logger.Named("http")),
		server.WithMaxBodyBytes(cfg.MaxBodyBytes),
	}
	if c := eng.Cache(); c != nil {
		srvOpts = append(srvOpts, server.WithStats(c))
	}
	srv, err := server.New(eng, srvOpts...)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.Int("workers", eng.Workers()),
			zap.Stringer("rounding", cfg.Rounding),
			zap.Bool("cache", eng.Cache() != nil),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var zc zap.Config
	if cfg.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}

// newEngine wires the cache tier selected by cfg into a new Engine. The
// returned func releases the store's connections.
func newEngine(ctx context.Context, cfg config.Config, logger *zap.Logger) (*engine.Engine, func(), error) {
	opts := []engine.Option{
		engine.WithWorkers(cfg.Workers),
		engine.WithRoundingMode(cfg.Rounding),
	}
	closeStore := func() {}

	if cfg.CacheEnabled {
		store, closer, err := newStore(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		closeStore = closer

		c, err := cache.New(store,
			cache.WithCompression(cfg.CacheCompression),
			cache.WithLogger(logger),
		)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
		opts = append(opts, engine.WithCache(c))
	}

	eng, err := engine.New(opts...)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	return eng, closeStore, nil
}

func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (cache.Store, func(), error) {
	if cfg.RedisAddr == "" {
		store, err := cache.NewMemoryStore(cfg.CacheCapacity)
		if err != nil {
			return nil, nil, err
		}

		return store, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	closer := func() {
		if err := client.Close(); err != nil {
			logger.Warn("close redis client", zap.Error(err))
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		closer()
		return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}

	store, err := cache.NewRedisStore(client, cache.WithTTL(cfg.RedisTTL))
	if err != nil {
		closer()
		return nil, nil, err
	}
	logger.Info("using redis cache", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.RedisTTL))

	return store, closer, nil
}
