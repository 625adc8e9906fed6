// 包 api：时区查询服务与 HTTP 路由，主入口只负责装配依赖并挂载到 API_BASE
package api

import (
	"context"
	"time"

	"geotz/internal/batch"
	"geotz/internal/cache"
	"geotz/internal/geo"
	"geotz/internal/geoip"
	"geotz/internal/logger"
	"geotz/internal/metrics"
	"geotz/internal/resolver"
	"geotz/internal/store"
	"geotz/internal/tzerr"
)

// 文档注释：查询服务
// 背景：在编排器之前叠加进程内缓存与 Redis 共享缓存，命中后不再进入多边形匹配；成功查询按命中层级计入统计。
// 约束：除 Resolver 外所有依赖均可为 nil（对应能力关闭）；缓存键为归一化后的精确坐标，缓存不改变结果。
type Service struct {
	Resolver *resolver.Lazy
	Local    *cache.Local
	Shared   *cache.Redis
	Store    *store.Store
	GeoIP    *geoip.Locator
	Batch    *batch.Runner
	BatchMax int
}

// Resolve：normalize → 确认编排器可用 → 本地缓存 → Redis → 编排器
func (s *Service) Resolve(ctx context.Context, lon, lat float64) (resolver.Result, error) {
	pt, err := geo.NewPoint(lon, lat)
	if err != nil {
		metrics.InvalidInputTotal.Inc()
		return resolver.Result{}, err
	}
	// 初始化失败时不对外提供任何结果，包括共享缓存中他处写入的条目
	r, err := s.Resolver.Get()
	if err != nil {
		return resolver.Result{}, err
	}
	key := cache.Key(pt)
	if s.Local != nil {
		if res, ok := s.Local.Get(key); ok {
			metrics.CacheHitsTotal.WithLabelValues("local").Inc()
			s.record(ctx, res)
			return res, nil
		}
		metrics.CacheMissesTotal.WithLabelValues("local").Inc()
	}
	skey := cache.SharedKey(r.Version(), pt)
	if s.Shared != nil {
		res, ok, err := s.Shared.Get(ctx, skey)
		if err != nil {
			logger.L().Debug("redis_get_error", "key", skey, "err", err)
		}
		if ok {
			metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
			s.Local.Set(key, res)
			s.record(ctx, res)
			return res, nil
		}
		metrics.CacheMissesTotal.WithLabelValues("redis").Inc()
	}

	t0 := time.Now()
	res, err := r.ResolvePoint(pt)
	metrics.ResolveDurationUs.Observe(float64(time.Since(t0).Microseconds()))
	if err != nil {
		if tzerr.IsInconsistency(err) {
			metrics.InconsistencyTotal.Inc()
			logger.L().Error("resolve_inconsistency", "lon", pt.Lon, "lat", pt.Lat, "err", err)
		}
		return resolver.Result{}, err
	}
	logger.L().Debug("resolve_done", "lon", pt.Lon, "lat", pt.Lat, "source", res.Source, "tier", res.Tier.String())
	s.Local.Set(key, res)
	if err := s.Shared.Set(ctx, skey, res); err != nil {
		logger.L().Debug("redis_set_error", "key", skey, "err", err)
	}
	s.record(ctx, res)
	return res, nil
}

// ResolveIP：先经 GeoIP 取坐标再查询
func (s *Service) ResolveIP(ctx context.Context, ip string) (resolver.Result, error) {
	lon, lat, err := s.GeoIP.Locate(ip)
	if err != nil {
		return resolver.Result{}, err
	}
	return s.Resolve(ctx, lon, lat)
}

// ResolveBatch：未配置协程池时顺序执行
func (s *Service) ResolveBatch(ctx context.Context, items []batch.Item) []batch.Outcome {
	if s.Batch == nil {
		out := make([]batch.Outcome, len(items))
		for i, it := range items {
			out[i].Result, out[i].Err = s.Resolve(ctx, it.Lon, it.Lat)
		}
		return out
	}
	return s.Batch.Run(ctx, items, s.Resolve)
}

func (s *Service) record(ctx context.Context, res resolver.Result) {
	metrics.ResolveTierTotal.WithLabelValues(res.Tier.String()).Inc()
	if err := s.Store.IncrStats(ctx, res.Tier); err != nil {
		logger.L().Debug("stats_incr_error", "err", err)
	}
}
