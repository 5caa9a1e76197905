package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UsersCacheNamespace prefixes every cached user read.
const UsersCacheNamespace = "users"

type cachedUsers struct {
	inner  Users
	cache  Cache
	ttl    time.Duration
	logger Logger
}

// NewCachedUsers wraps a user store with read-through caching. Lookups
// are cached under the users namespace; Create and provisioning drop
// the namespace before returning.
func NewCachedUsers(inner Users, cache Cache, cfg Config) Users {
	ttl := DefaultCacheTTL
	if cfg != nil && cfg.GetCacheTTL() > 0 {
		ttl = cfg.GetCacheTTL()
	}

	return &cachedUsers{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: defLogger{},
	}
}

func (c *cachedUsers) GetByUsername(ctx context.Context, username string) (*User, error) {
	key := CacheKey(UsersCacheNamespace, "users", "GetByUsername", username)
	return c.readThrough(ctx, key, func(ctx context.Context) (*User, error) {
		return c.inner.GetByUsername(ctx, username)
	})
}

func (c *cachedUsers) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	key := CacheKey(UsersCacheNamespace, "users", "GetByID", id.String())
	return c.readThrough(ctx, key, func(ctx context.Context) (*User, error) {
		return c.inner.GetByID(ctx, id)
	})
}

func (c *cachedUsers) Create(ctx context.Context, user *User) (*User, error) {
	record, err := c.inner.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx)
	return record, nil
}

func (c *cachedUsers) CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	record, err := c.inner.CreateTx(ctx, tx, user)
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx)
	return record, nil
}

func (c *cachedUsers) FindOrProvisionByExternalID(ctx context.Context, externalID string) (*User, error) {
	record, err := c.inner.FindOrProvisionByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	// Provisioning may have created a row under a key a previous miss
	// never cached; dropping the namespace keeps lookups coherent.
	c.invalidate(ctx)
	return record, nil
}

func (c *cachedUsers) readThrough(ctx context.Context, key string, load func(context.Context) (*User, error)) (*User, error) {
	cached := &User{}
	if hit, err := c.cache.Get(ctx, key, cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		c.logger.Warn("user cache read failed, falling through", "error", err)
	}

	record, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if record != nil {
		if err := c.cache.Set(ctx, key, record, c.ttl); err != nil {
			c.logger.Warn("user cache write failed", "error", err)
		}
	}

	return record, nil
}

func (c *cachedUsers) invalidate(ctx context.Context) {
	if err := c.cache.InvalidateNamespace(ctx, UsersCacheNamespace); err != nil {
		c.logger.Warn("user cache invalidation failed", "error", err)
	}
}

var _ Users = (*cachedUsers)(nil)
