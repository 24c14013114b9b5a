// Package cache stores recent weather snapshots in Redis so repeated
// questions about the same city within a few minutes reuse one fetch.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hualin/feishu-weather-bot/internal/weather"
)

const defaultTTL = 10 * time.Minute

// Cache wraps a Redis client with typed get/set for weather snapshots.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with a 10-minute TTL.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: defaultTTL}
}

// key returns the Redis key for the given city.
func key(city string) string {
	return "weather:" + strings.ToLower(strings.TrimSpace(city))
}

// Get retrieves a cached snapshot. Returns nil, nil on a miss (not an error).
func (c *Cache) Get(ctx context.Context, city string) (*weather.Snapshot, error) {
	val, err := c.client.Get(ctx, key(city)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for city %s: %w", city, err)
	}

	var snap weather.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling cached snapshot for city %s: %w", city, err)
	}

	return &snap, nil
}

// Set stores a snapshot with the configured TTL. Error snapshots are never
// cached: a transient provider failure must not be replayed for ten minutes.
func (c *Cache) Set(ctx context.Context, city string, snap weather.Snapshot) error {
	if snap.Failed() {
		return nil
	}

	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot for city %s: %w", city, err)
	}

	if err := c.client.Set(ctx, key(city), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for city %s: %w", city, err)
	}

	return nil
}
