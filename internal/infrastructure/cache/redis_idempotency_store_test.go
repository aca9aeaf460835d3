package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisIdempotencyStoreWithClient_DefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	store := NewRedisIdempotencyStoreWithClient(client, "")
	defer store.Close()

	assert.Equal(t, defaultKeyPrefix, store.keyPrefix)
}

func TestRedisIdempotencyStore_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedisIdempotencyStoreWithClient(client, "test:")
	defer store.Close()

	_, err := store.MarkProcessed(context.Background(), "k", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark idempotency key")

	err = store.Forget(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forget idempotency key")
}

func TestNewIdempotencyStore_Memory(t *testing.T) {
	store, err := NewIdempotencyStore(context.Background(), config.IdempotencyConfig{Backend: "memory"}, config.RedisConfig{})
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*InMemoryIdempotencyStore)
	assert.True(t, ok)
}
