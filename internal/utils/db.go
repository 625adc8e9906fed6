package utils

import (
	"context"
	"database/sql"
	"time"

	"geotz/internal/config"
	"geotz/internal/logger"

	"github.com/codeGROOVE-dev/retry"
	_ "github.com/lib/pq"
)

// OpenPostgres：按配置打开连接池并在启动期带退避地确认可达
// 约束：仅用于统计写入，失败由调用方决定是否降级；查询主链路不依赖数据库
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	err = retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.L().Debug("db_ping_retry", "attempt", n+1, "host", cfg.Host, "err", err)
		}),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
