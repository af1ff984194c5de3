package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-primitives/transfer-service/internal/cache"
	"github.com/wallet-primitives/transfer-service/internal/logger"
)

func startCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.New(client, logger.NewNop()), srv
}

func TestTryAcquire_ExclusiveUntilReleased(t *testing.T) {
	c, _ := startCache(t)
	ctx := context.Background()

	ok, err := c.TryAcquire(ctx, "lock:t1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryAcquire(ctx, "lock:t1", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "a second acquire on the same key must fail while the lease is held")

	require.NoError(t, c.Release(ctx, "lock:t1"))

	ok, err = c.TryAcquire(ctx, "lock:t1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "acquire must succeed again once released")
}

func TestLease_ExpiresAfterTTL(t *testing.T) {
	c, srv := startCache(t)
	ctx := context.Background()

	ok, err := c.TryAcquire(ctx, "lock:t2", 1*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	srv.FastForward(2 * time.Second)

	ok, err = c.TryAcquire(ctx, "lock:t2", 1*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "an expired lease must be acquirable again")
}

type resultPayload struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

func TestPutGetResult_RoundTrip(t *testing.T) {
	c, _ := startCache(t)
	ctx := context.Background()

	want := resultPayload{TransactionID: "tx-1", Status: "COMPLETED"}
	require.NoError(t, c.PutResult(ctx, "idempotency:t1", want, 24*time.Hour))

	var got resultPayload
	require.NoError(t, c.GetResult(ctx, "idempotency:t1", &got))
	assert.Equal(t, want, got)
}

func TestGetResult_Miss(t *testing.T) {
	c, _ := startCache(t)
	err := c.GetResult(context.Background(), "idempotency:missing", &resultPayload{})
	assert.ErrorIs(t, err, cache.ErrMiss)
}
