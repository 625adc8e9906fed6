// 包 store: PostgreSQL 数据访问层，记录按命中层级划分的查询统计
package store

import (
	"context"
	"database/sql"

	"geotz/internal/logger"
	"geotz/internal/tier"

	_ "github.com/lib/pq"
)

// Store: 持有连接池并提供统计读写；nil Store 的所有操作为空操作
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// IncrStats: 成功查询后递增该层级的累计与当日计数
func (s *Store) IncrStats(ctx context.Context, r tier.Rank) error {
	if s == nil {
		return nil
	}
	name := r.String()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO _tz_stats_total(tier, queries) VALUES($1, 1)
        ON CONFLICT (tier) DO UPDATE SET queries=_tz_stats_total.queries+1`, name); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO _tz_stats_daily(day, tier, queries) VALUES(current_date, $1, 1)
        ON CONFLICT (day, tier) DO UPDATE SET queries=_tz_stats_daily.queries+1`, name); err != nil {
		return err
	}
	logger.L().Debug("stats_incr", "tier", name)
	return nil
}

// Totals: 各层级的累计与当日查询次数
type Totals struct {
	Total  int64            `json:"total"`
	Today  int64            `json:"today"`
	ByTier map[string]int64 `json:"by_tier"`
}

// GetTotals: 读取累计与当日查询次数
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	t := &Totals{ByTier: make(map[string]int64)}
	if s == nil {
		return t, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT tier, queries FROM _tz_stats_total`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var n int64
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		t.ByTier[name] = n
		t.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(queries), 0) FROM _tz_stats_daily WHERE day=current_date`)
	if err := row.Scan(&t.Today); err != nil {
		return nil, err
	}
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today)
	return t, nil
}
