package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const footballCachePrefix = "footballdata:"

// RedisPayloadCache keeps football-data.org payloads for a short TTL so repeated
// questions stay inside the upstream's per-minute quota.
type RedisPayloadCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPayloadCache(client *redis.Client, ttl time.Duration) *RedisPayloadCache {
	return &RedisPayloadCache{client: client, ttl: ttl}
}

func (c *RedisPayloadCache) key(path string) string {
	return footballCachePrefix + path
}

func (c *RedisPayloadCache) Get(ctx context.Context, path string) ([]byte, bool) {
	data, err := c.client.Get(ctx, c.key(path)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithFields(log.Fields{"endpoint": path, "error": err.Error(), "event": "football_cache_error"}).Warn("Football cache read failed")
		}
		return nil, false
	}
	return data, true
}

func (c *RedisPayloadCache) Set(ctx context.Context, path string, payload []byte) {
	if err := c.client.Set(ctx, c.key(path), payload, c.ttl).Err(); err != nil {
		log.WithFields(log.Fields{"endpoint": path, "error": err.Error(), "event": "football_cache_error"}).Warn("Football cache write failed")
	}
}
