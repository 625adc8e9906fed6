package migrate

import (
	"context"
	"database/sql"

	"geotz/internal/logger"
)

// 背景：首次运行自动创建统计表
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS _tz_stats_total (
        tier TEXT PRIMARY KEY,
        queries BIGINT NOT NULL DEFAULT 0
    )`,
	`CREATE TABLE IF NOT EXISTS _tz_stats_daily (
        day DATE NOT NULL,
        tier TEXT NOT NULL,
        queries BIGINT NOT NULL DEFAULT 0,
        PRIMARY KEY (day, tier)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_tz_stats_daily_day ON _tz_stats_daily(day)`,
	`INSERT INTO _tz_stats_total(tier, queries)
     VALUES('national', 0), ('global', 0), ('band', 0)
     ON CONFLICT (tier) DO NOTHING`,
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
