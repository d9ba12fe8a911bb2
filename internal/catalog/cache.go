package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const listCacheKey = "catalog:products:list"

// Cache keeps the serialised product list in Redis between mutations.
// A nil client or a non-positive TTL turns every call into a miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Products returns the cached list. ok is false on a miss, a disabled cache
// or an undecodable payload.
func (c *Cache) Products(ctx context.Context) (items []Product, ok bool, err error) {
	if !c.enabled() {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, listCacheKey).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		// drop the poisoned entry so the next read repopulates it
		_ = c.client.Del(ctx, listCacheKey).Err()
		return nil, false, err
	}
	return items, true, nil
}

func (c *Cache) StoreProducts(ctx context.Context, items []Product) error {
	if !c.enabled() {
		return nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, listCacheKey, raw, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Del(ctx, listCacheKey).Err()
}
