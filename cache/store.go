package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/arloliu/vecopt/errs"
	"github.com/arloliu/vecopt/internal/options"
)

// Store persists encoded payloads. Implementations must be safe for
// concurrent use. Get reports a miss with ok == false and a nil error.
type Store interface {
	Get(ctx context.Context, key Key) (payload []byte, ok bool, err error)
	Set(ctx context.Context, key Key, payload []byte) error
}

// MemoryStore is a fixed-capacity least-recently-used Store.
type MemoryStore struct {
	lru *lru.Cache[Key, []byte]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an LRU store holding at most capacity entries.
func NewMemoryStore(capacity int) (*MemoryStore, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", errs.ErrInvalidCacheCapacity, capacity)
	}

	c, err := lru.New[Key, []byte](capacity)
	if err != nil {
		return nil, err
	}

	return &MemoryStore{lru: c}, nil
}

// Get returns the payload for key and marks it recently used.
func (s *MemoryStore) Get(_ context.Context, key Key) ([]byte, bool, error) {
	payload, ok := s.lru.Get(key)
	return payload, ok, nil
}

// Set stores payload, evicting the least recently used entry when full.
// The store keeps payload; callers must not modify it afterwards.
func (s *MemoryStore) Set(_ context.Context, key Key, payload []byte) error {
	s.lru.Add(key, payload)
	return nil
}

// Len returns the number of cached entries.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}

// DefaultRedisKeyPrefix namespaces result keys in a shared Redis database.
const DefaultRedisKeyPrefix = "vecopt:result:"

// RedisStore is a Store backed by Redis, for sharing results across
// instances.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// RedisOption configures a RedisStore.
type RedisOption = options.Option[*RedisStore]

// WithKeyPrefix sets the prefix prepended to every key.
func WithKeyPrefix(prefix string) RedisOption {
	return options.NoError(func(s *RedisStore) {
		s.prefix = prefix
	})
}

// WithTTL sets the expiry of stored entries. Zero means no expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return options.New(func(s *RedisStore) error {
		if ttl < 0 {
			return fmt.Errorf("redis ttl must not be negative: %s", ttl)
		}
		s.ttl = ttl

		return nil
	})
}

// NewRedisStore wraps a go-redis client.
func NewRedisStore(client redis.Cmdable, opts ...RedisOption) (*RedisStore, error) {
	if client == nil {
		return nil, errs.ErrNilStore
	}

	s := &RedisStore{
		client: client,
		prefix: DefaultRedisKeyPrefix,
		ttl:    time.Hour,
	}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *RedisStore) redisKey(key Key) string {
	return s.prefix + key.String()
}

// Get fetches the payload for key.
func (s *RedisStore) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	payload, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	return payload, true, nil
}

// Set stores the payload for key with the configured TTL.
func (s *RedisStore) Set(ctx context.Context, key Key, payload []byte) error {
	if err := s.client.Set(ctx, s.redisKey(key), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}
