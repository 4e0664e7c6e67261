package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "quota:"

// Redis shares cached values between server instances
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	obs    Observer
	logger *zap.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, obs Observer, logger *zap.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, obs: obs, logger: logger}
}

// NewRedisClient connects to addr and checks the connection
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 0})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis cache get failed", zap.String("key", key), zap.Error(err))
		}
		if c.obs != nil {
			c.obs.CacheMiss()
		}
		return nil, false
	}
	if c.obs != nil {
		c.obs.CacheHit()
	}
	return val, true
}

func (c *Redis) Set(ctx context.Context, key string, v []byte) {
	if err := c.client.Set(ctx, redisKeyPrefix+key, v, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache set failed", zap.String("key", key), zap.Error(err))
	}
}
