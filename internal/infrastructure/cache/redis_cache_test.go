package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheIntegration(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL is not set")
	}

	ctx := context.Background()
	client, err := cache.NewClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	prefix := "test:" + uuid.NewString() + ":"
	c := cache.NewRedisCache(client, prefix, time.Minute)

	_, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "abc", `{"mappings":{}}`))

	got, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"mappings":{}}`, got)

	ttl, err := client.TTL(ctx, prefix+"abc").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, client.Del(ctx, prefix+"abc").Err())
}

func TestNewClientRejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := cache.NewClient(context.Background(), "not a redis url")
	assert.ErrorContains(t, err, "parse redis url")
}
