package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "trailview:dedupe:"

// RedisDeduper shares dedupe state across ingest replicas.
type RedisDeduper struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisDeduper constructs a Redis-backed deduper.
func NewRedisDeduper(client redis.Cmdable, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

// Seen sets the key if absent. A failed SETNX means the key already existed.
func (d *RedisDeduper) Seen(ctx context.Context, key string) (bool, error) {
	created, err := d.client.SetNX(ctx, keyPrefix+key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe setnx: %w", err)
	}
	return !created, nil
}

// Forget deletes key so a later redelivery is processed again.
func (d *RedisDeduper) Forget(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("dedupe del: %w", err)
	}
	return nil
}
