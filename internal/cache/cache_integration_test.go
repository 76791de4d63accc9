//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *Cache {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp").WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := Connect(ctx, url)
	require.NoError(t, err)

	c := New(client, time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisRoundTripAndInvalidation(t *testing.T) {
	ctx := context.Background()
	c := startRedis(t)
	require.True(t, c.IsAvailable())

	type payload struct {
		Name string `json:"name"`
	}

	first := PrincipalKey(uuid.New())
	second := PrincipalKey(uuid.New())
	quote := QuoteKey(uuid.New())

	for _, key := range []string{first, second, quote} {
		require.NoError(t, c.Set(ctx, key, payload{Name: key}))
	}

	var got payload
	found, err := c.Get(ctx, first, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first, got.Name)

	require.NoError(t, c.Invalidate(ctx, first, second))

	found, err = c.Get(ctx, second, &got)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = c.Get(ctx, quote, &got)
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, c.Invalidate(ctx, quote))
	found, err = c.Get(ctx, quote, &got)
	require.NoError(t, err)
	assert.False(t, found)
}
