package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// CachedLookup layers a short-lived availability cache over another Lookup.
// Search is never cached so typeahead results stay live.
type CachedLookup struct {
	Next   Lookup
	Cache  *Cache
	Logger zerolog.Logger
}

// Availability serves from cache when possible and falls through to the
// wrapped lookup otherwise. Cache failures degrade to a direct lookup.
func (c CachedLookup) Availability(ctx context.Context, productRef string) (Availability, error) {
	key := availabilityKey(productRef)
	var cached Availability
	hit, err := c.Cache.GetJSON(ctx, key, &cached)
	if err != nil {
		c.Logger.Warn().Err(err).Str("key", key).Msg("availability cache read failed")
	} else if hit {
		return cached, nil
	}
	fresh, err := c.Next.Availability(ctx, productRef)
	if err != nil {
		return Availability{}, err
	}
	if err := c.Cache.SetJSON(ctx, key, fresh); err != nil {
		c.Logger.Warn().Err(err).Str("key", key).Msg("availability cache write failed")
	}
	return fresh, nil
}

// Search delegates to the wrapped lookup.
func (c CachedLookup) Search(ctx context.Context, term string) ([]Product, error) {
	return c.Next.Search(ctx, term)
}

func availabilityKey(productRef string) string {
	return fmt.Sprintf("catalog:availability:%s", productRef)
}
