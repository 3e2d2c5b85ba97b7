package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
)

// DefaultRedisPrefix namespaces cache keys.
const DefaultRedisPrefix = "e2egateway:pubkey:"

// RedisKeyCache shares resolved public keys between processes.
type RedisKeyCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisKeyCache wraps an existing client. ttl of zero keeps keys forever.
func NewRedisKeyCache(rdb *redis.Client, prefix string, ttl time.Duration) *RedisKeyCache {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisKeyCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

// OpenRedisKeyCache connects to rawURL (redis://...) and checks the connection.
func OpenRedisKeyCache(ctx context.Context, rawURL, prefix string, ttl time.Duration) (*RedisKeyCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisKeyCache(rdb, prefix, ttl), nil
}

var _ domain.KeyCache = (*RedisKeyCache)(nil)

func (c *RedisKeyCache) key(id domain.Identity) string { return c.prefix + string(id) }

func (c *RedisKeyCache) Get(ctx context.Context, id domain.Identity) (domain.PublicKey, bool, error) {
	s, err := c.rdb.Get(ctx, c.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.PublicKey{}, false, nil
	}
	if err != nil {
		return domain.PublicKey{}, false, err
	}
	pk, err := crypto.DecodeHexKey(s)
	if err != nil {
		// a corrupt entry is a miss
		_ = c.rdb.Del(ctx, c.key(id)).Err()
		return domain.PublicKey{}, false, nil
	}
	return pk, true, nil
}

func (c *RedisKeyCache) Put(ctx context.Context, id domain.Identity, key domain.PublicKey) error {
	return c.rdb.Set(ctx, c.key(id), hex.EncodeToString(key[:]), c.ttl).Err()
}

func (c *RedisKeyCache) Delete(ctx context.Context, id domain.Identity) error {
	return c.rdb.Del(ctx, c.key(id)).Err()
}

// Clear removes every key under the cache prefix.
func (c *RedisKeyCache) Clear(ctx context.Context) error {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close closes the underlying client.
func (c *RedisKeyCache) Close() error { return c.rdb.Close() }
