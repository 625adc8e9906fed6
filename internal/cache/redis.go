package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"geotz/internal/resolver"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "geotz:"

// Redis：跨实例共享的结果缓存；rc 为 nil 时所有操作视为未命中
type Redis struct {
	rc  *redis.Client
	ttl time.Duration
}

func NewRedis(rc *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{rc: rc, ttl: ttl}
}

// Get 返回缓存值；键不存在返回 (zero, false, nil)
func (c *Redis) Get(ctx context.Context, key string) (resolver.Result, bool, error) {
	var out resolver.Result
	if c == nil || c.rc == nil {
		return out, false, nil
	}
	s, err := c.rc.Get(ctx, redisPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return resolver.Result{}, false, err
	}
	return out, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, v resolver.Result) error {
	if c == nil || c.rc == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rc.Set(ctx, redisPrefix+key, b, c.ttl).Err()
}
