// 包 utils：外部依赖（Redis / PostgreSQL）连接工具，统一读取配置与启动期重试
package utils

import (
	"context"
	"time"

	"geotz/internal/config"
	"geotz/internal/logger"

	"github.com/codeGROOVE-dev/retry"
	"github.com/redis/go-redis/v9"
)

// OpenRedis：未启用时返回 nil；启用但多次 Ping 失败时关闭客户端并返回错误
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enable {
		return nil, nil
	}
	rc := redis.NewClient(&redis.Options{Addr: cfg.Addr(), Password: cfg.Pass, DB: cfg.DB})
	logger.L().Debug("redis_config", "addr", cfg.Addr(), "db", cfg.DB)
	err := retry.Do(
		func() error { return rc.Ping(ctx).Err() },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.L().Debug("redis_ping_retry", "attempt", n+1, "err", err)
		}),
	)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return rc, nil
}
