package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// Default timeouts for cache operations. A hung cache fails the lookup
// and the caller falls through to the durable store.
const (
	DefaultCacheDialTimeout  = 5 * time.Second
	DefaultCacheReadTimeout  = 3 * time.Second
	DefaultCacheWriteTimeout = 3 * time.Second
)

// DefaultCacheTTL bounds how stale a cached read can get.
const DefaultCacheTTL = 90 * time.Second

// Cache is the read-through/write-invalidate store the repositories sit
// behind. It is strictly an optimization: every method may fail or miss
// and callers must fall through to the source of truth.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// InvalidateNamespace removes every key under the namespace. Writes
	// trade precision for simplicity: the whole namespace goes, not one key.
	InvalidateNamespace(ctx context.Context, namespace string) error
}

// CacheKey builds the canonical cache key:
// {namespace}:{sha256(namespace:owner:function:args)}.
// Hashing keeps arbitrary arguments (usernames, uuids) out of key space.
func CacheKey(namespace, owner, function string, args ...string) string {
	raw := namespace + ":" + owner + ":" + function + ":" + strings.Join(args, ",")
	sum := sha256.Sum256([]byte(raw))
	return namespace + ":" + hex.EncodeToString(sum[:])
}

// RedisCacheConfig holds connection settings for the cache client.
type RedisCacheConfig struct {
	Addr     string
	Password string
	DB       int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisCache implements Cache on go-redis. Values are stored as JSON.
type RedisCache struct {
	client redis.UniversalClient
	logger Logger
}

// NewRedisCache creates a cache backed by a fresh redis client.
func NewRedisCache(cfg RedisCacheConfig) *RedisCache {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultCacheDialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultCacheReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultCacheWriteTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	return NewRedisCacheWithClient(client)
}

// NewRedisCacheWithClient wraps an existing client. Used by tests to point
// the cache at miniredis.
func NewRedisCacheWithClient(client redis.UniversalClient) *RedisCache {
	return &RedisCache{
		client: client,
		logger: defLogger{},
	}
}

func (c *RedisCache) WithLogger(logger Logger) *RedisCache {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Get loads the JSON value under key into dest. The boolean reports a hit.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.CategoryInternal, "cache get failed")
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		// A corrupt entry behaves like a miss; the caller re-reads and
		// overwrites it.
		c.logger.Warn("cache entry failed to decode, treating as miss", "key", key)
		return false, nil
	}

	return true, nil
}

// Set stores value as JSON under key with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "cache value failed to encode")
	}

	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "cache set failed")
	}

	return nil
}

// InvalidateNamespace scans for {namespace}:* and deletes every match.
func (c *RedisCache) InvalidateNamespace(ctx context.Context, namespace string) error {
	iter := c.client.Scan(ctx, 0, namespace+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "cache delete failed")
		}
	}

	if err := iter.Err(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "cache scan failed")
	}

	return nil
}

var _ Cache = (*RedisCache)(nil)
