// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"geotz/internal/api"
	"geotz/internal/batch"
	"geotz/internal/cache"
	"geotz/internal/config"
	"geotz/internal/geoip"
	"geotz/internal/logger"
	"geotz/internal/metrics"
	"geotz/internal/middleware"
	"geotz/internal/migrate"
	"geotz/internal/resolver"
	"geotz/internal/store"
	"geotz/internal/utils"
)

func main() {
	cfg, err := config.Load(".env", filepath.Join("data", "env", ".env"))
	// 日志初始化（.env 中的 LOG_LEVEL / LOG_FORMAT 已生效）
	l := logger.Setup()
	l.Debug("log_init_ok")
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	l.Debug("config_api_base", "base", cfg.APIBase)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 背景：边界库与偏移表是查询的唯一依据；默认启动即加载，失败直接退出
	paths := resolver.Paths{National: cfg.NationalPath, Global: cfg.GlobalPath, Offsets: cfg.OffsetsPath}
	var lazy *resolver.Lazy
	if cfg.LazyInit {
		lazy = resolver.LazyFromPaths(paths)
		l.Info("resolver_lazy", "national", paths.National, "global", paths.Global, "offsets", paths.Offsets)
	} else {
		r, err := resolver.Load(paths)
		if err != nil {
			l.Error("resolver_init_error", "err", err)
			os.Exit(1)
		}
		lazy = resolver.Ready(r)
	}

	svc := &api.Service{
		Resolver: lazy,
		Local:    cache.NewLocal(cfg.CacheSize, cfg.CacheTTL),
		BatchMax: cfg.BatchMax,
	}
	l.Debug("cache_local", "size", cfg.CacheSize, "ttl", cfg.CacheTTL.String(), "enabled", svc.Local != nil)

	rc, err := utils.OpenRedis(ctx, cfg.Redis)
	switch {
	case err != nil:
		l.Error("redis_ping_error", "err", err)
	case rc == nil:
		l.Info("redis_disabled")
	default:
		l.Info("redis_ping_ok")
		defer rc.Close()
		svc.Shared = cache.NewRedis(rc, cfg.Redis.TTL)
	}

	if cfg.StatsEnable {
		db, err := utils.OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			l.Error("db_open_error", "err", err)
		} else if err := migrate.EnsureSchema(ctx, db); err != nil {
			l.Error("schema_error", "err", err)
			_ = db.Close()
		} else {
			l.Info("db_open_ok")
			svc.Store = store.AttachDB(db)
			defer svc.Store.Close()
		}
	} else {
		l.Info("stats_disabled")
	}

	loc, err := geoip.Open(cfg.GeoIPPath)
	if err != nil {
		l.Error("geoip_open_error", "err", err)
	}
	svc.GeoIP = loc
	defer loc.Close()

	runner, err := batch.New(cfg.BatchWorkers)
	if err != nil {
		l.Error("batch_pool_error", "err", err)
		os.Exit(1)
	}
	defer runner.Close()
	svc.Batch = runner

	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, api.BuildRoutes(svc)))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.RateLimit(cfg.RateLimitRPS, handler)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()
	l.Info("listening", "addr", cfg.Addr, "base", cfg.APIBase)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("listen_error", "err", err)
		os.Exit(1)
	}
	l.Info("shutdown_ok")
}
