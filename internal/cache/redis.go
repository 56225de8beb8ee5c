package cache

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/presence-gateway/internal/config"
)

// GatewayAgentsKey is the hash holding live gateway connection counts per user agent.
const GatewayAgentsKey = "gateway:agents"

// decrAndPrune decrements a hash field and removes it once it drops to zero,
// so the hash only ever lists agents with live connections.
var decrAndPrune = redis.NewScript(`
local n = redis.call("HINCRBY", KEYS[1], ARGV[1], -1)
if n <= 0 then
	redis.call("HDEL", KEYS[1], ARGV[1])
	return 0
end
return n
`)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// AcquireAgent records one more live gateway connection for the given user agent.
func (c *RedisCache) AcquireAgent(ctx context.Context, agent string) (int64, error) {
	return c.Client.HIncrBy(ctx, GatewayAgentsKey, agent, 1).Result()
}

// ReleaseAgent drops one live connection for agent; the field disappears at zero.
func (c *RedisCache) ReleaseAgent(ctx context.Context, agent string) (int64, error) {
	return decrAndPrune.Run(ctx, c.Client, []string{GatewayAgentsKey}, agent).Int64()
}

// GatewayAgents returns a snapshot of live connection counts per user agent.
func (c *RedisCache) GatewayAgents(ctx context.Context) (map[string]int64, error) {
	raw, err := c.Client.HGetAll(ctx, GatewayAgentsKey).Result()
	if errors.Is(err, redis.Nil) {
		return map[string]int64{}, nil
	} else if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(raw))
	for agent, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[agent] = n
	}
	return out, nil
}
