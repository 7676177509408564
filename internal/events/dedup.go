package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultDedupTTL     = time.Hour
	defaultRedisTimeout = 5 * time.Second
)

// RedisConfig captures the settings for a Redis connection.
type RedisConfig struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// ConnectRedis opens a Redis client and validates it with a ping.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// KeyStore is the subset of the Redis client the Deduper needs.
type KeyStore interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Deduper drops repeated transitions of the same entity within the TTL.
// Key format: status:<entity_id>:<from>:<to>
type Deduper struct {
	client KeyStore
	next   Recorder
	ttl    time.Duration
}

// NewDeduper wraps next with Redis-backed deduplication. A zero ttl uses one hour.
func NewDeduper(client KeyStore, next Recorder, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &Deduper{client: client, next: next, ttl: ttl}
}

// RecordStatusChange implements Recorder. When Redis is unreachable the event
// is forwarded anyway. The key is released when the wrapped recorder fails so
// a retry is not dropped as a repeat.
func (d *Deduper) RecordStatusChange(ctx context.Context, entityID, from, to string, metadata map[string]any, note string) error {
	key := d.key(entityID, from, to)
	first, err := d.client.SetNX(ctx, key, "1", d.ttl).Result()
	if err == nil && !first {
		return nil
	}
	if recErr := d.next.RecordStatusChange(ctx, entityID, from, to, metadata, note); recErr != nil {
		if err == nil {
			if delErr := d.client.Del(ctx, key).Err(); delErr != nil {
				return errors.Join(recErr, fmt.Errorf("dedup release: %w", delErr))
			}
		}
		return recErr
	}
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	return nil
}

func (d *Deduper) key(entityID, from, to string) string {
	return fmt.Sprintf("status:%s:%s:%s", entityID, from, to)
}

var _ Recorder = (*Deduper)(nil)
