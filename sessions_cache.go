package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionsCacheNamespace prefixes every cached session read.
const SessionsCacheNamespace = "sessions"

// cachedSessions is the cache-aside wrapper around the durable session
// store. Reads go through the cache; every write invalidates the whole
// namespace before the call returns, so a caller that observed its own
// write never races a stale cache entry. With the cache unreachable the
// wrapper degrades to the inner store.
type cachedSessions struct {
	inner  Sessions
	cache  Cache
	ttl    time.Duration
	logger Logger
}

// NewCachedSessions wraps a session store with read-through caching.
func NewCachedSessions(inner Sessions, cache Cache, cfg Config) Sessions {
	ttl := DefaultCacheTTL
	if cfg != nil && cfg.GetCacheTTL() > 0 {
		ttl = cfg.GetCacheTTL()
	}

	return &cachedSessions{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: defLogger{},
	}
}

func (c *cachedSessions) CreateOrReuse(ctx context.Context, candidate *Session) (*Session, error) {
	record, err := c.inner.CreateOrReuse(ctx, candidate)
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx)
	return record, nil
}

func (c *cachedSessions) GetActive(ctx context.Context, sessionUUID string) (*Session, error) {
	key := CacheKey(SessionsCacheNamespace, "sessions", "GetActive", sessionUUID)

	cached := &Session{}
	if hit, err := c.cache.Get(ctx, key, cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		c.logger.Warn("session cache read failed, falling through", "error", err)
	}

	record, err := c.inner.GetActive(ctx, sessionUUID)
	if err != nil {
		return nil, err
	}

	// Inactive or missing sessions are not cached; a revoked session must
	// never outlive its revocation through a stale entry.
	if record != nil {
		if err := c.cache.Set(ctx, key, record, c.ttl); err != nil {
			c.logger.Warn("session cache write failed", "error", err)
		}
	}

	return record, nil
}

func (c *cachedSessions) ListForSubject(ctx context.Context, sub uuid.UUID) ([]*Session, error) {
	key := CacheKey(SessionsCacheNamespace, "sessions", "ListForSubject", sub.String())

	var cached []*Session
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		c.logger.Warn("session cache read failed, falling through", "error", err)
	}

	records, err := c.inner.ListForSubject(ctx, sub)
	if err != nil {
		return nil, err
	}

	if len(records) > 0 {
		if err := c.cache.Set(ctx, key, records, c.ttl); err != nil {
			c.logger.Warn("session cache write failed", "error", err)
		}
	}

	return records, nil
}

func (c *cachedSessions) Revoke(ctx context.Context, sessionUUID string) error {
	if err := c.inner.Revoke(ctx, sessionUUID); err != nil {
		return err
	}

	c.invalidate(ctx)
	return nil
}

func (c *cachedSessions) RevokeOwned(ctx context.Context, actingSub uuid.UUID, targetUUID string) error {
	if err := c.inner.RevokeOwned(ctx, actingSub, targetUUID); err != nil {
		return err
	}

	c.invalidate(ctx)
	return nil
}

func (c *cachedSessions) invalidate(ctx context.Context) {
	if err := c.cache.InvalidateNamespace(ctx, SessionsCacheNamespace); err != nil {
		// Stale entries are bounded by the namespace TTL; the durable
		// store already holds the truth.
		c.logger.Warn("session cache invalidation failed", "error", err)
	}
}

var _ Sessions = (*cachedSessions)(nil)
