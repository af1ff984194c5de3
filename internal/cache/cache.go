// Package cache implements C5: a Redis-backed exclusive lease and a
// serialized result cache, both keyed by idempotency key. The cache is
// an accelerator and a mutex only — it never holds authoritative state;
// the database remains the sole source of truth for balances and
// transaction status (spec §5).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wallet-primitives/transfer-service/internal/logger"
)

// ErrMiss is returned by GetResult when the key is absent.
var ErrMiss = errors.New("cache: key not found")

// MutexCache is the C5 contract: TryAcquire/Release implement the
// per-key exclusive lease, PutResult/GetResult implement the serialized
// result cache.
type MutexCache interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	PutResult(ctx context.Context, key string, value any, ttl time.Duration) error
	GetResult(ctx context.Context, key string, dest any) error
}

// RedisCache is the production MutexCache, backed by a single
// go-redis client using SET ... EX ... NX for lease acquisition.
type RedisCache struct {
	client *redis.Client
	log    logger.Logger
}

// New constructs a RedisCache around an already-connected client.
func New(client *redis.Client, log logger.Logger) *RedisCache {
	return &RedisCache{client: client, log: log}
}

// NewClient builds a go-redis client from an address/password pair and
// verifies connectivity with a bounded ping.
func NewClient(addr, password string, dialTimeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// TryAcquire attempts SET key 1 EX ttl NX, returning whether this caller
// now owns the lease. The lease auto-expires after ttl to bound crashes
// (spec §4.1's "Lease acquisition").
func (c *RedisCache) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		c.log.Error("lease acquire failed", logger.StringField("key", key), logger.ErrorField("error", err))
		return false, err
	}
	return ok, nil
}

// Release unconditionally deletes the lease key. No fencing token is
// used: a caller that stalls past the TTL has already silently lost the
// lease, and if someone else has since acquired the key, this call
// deletes their lease (spec §4.6).
func (c *RedisCache) Release(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Error("lease release failed", logger.StringField("key", key), logger.ErrorField("error", err))
		return err
	}
	return nil
}

// PutResult serializes value as JSON and stores it with the given TTL,
// replacing any prior value at key.
func (c *RedisCache) PutResult(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.log.Error("result cache write failed", logger.StringField("key", key), logger.ErrorField("error", err))
		return err
	}
	return nil
}

// GetResult fetches and unmarshals the value at key into dest, returning
// ErrMiss if the key does not exist.
func (c *RedisCache) GetResult(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		c.log.Error("result cache read failed", logger.StringField("key", key), logger.ErrorField("error", err))
		return err
	}
	return json.Unmarshal(data, dest)
}
