package cache_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/presence-gateway/internal/cache"
	"github.com/oggyb/presence-gateway/internal/config"
)

func setupCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestAgentCounters(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	n, err := c.AcquireAgent(ctx, "client/1.0")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.AcquireAgent(ctx, "client/1.0")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = c.AcquireAgent(ctx, "other/2.0")
	require.NoError(t, err)

	agents, err := c.GatewayAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"client/1.0": 2, "other/2.0": 1}, agents)

	n, err = c.ReleaseAgent(ctx, "client/1.0")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReleaseAgentPrunesAtZero(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	_, err := c.AcquireAgent(ctx, "client/1.0")
	require.NoError(t, err)

	n, err := c.ReleaseAgent(ctx, "client/1.0")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.False(t, mr.Exists(cache.GatewayAgentsKey))

	agents, err := c.GatewayAgents(ctx)
	require.NoError(t, err)
	assert.Empty(t, agents)
}
