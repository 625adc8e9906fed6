package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotz_requests_total",
		Help: "Total number of API requests by endpoint",
	}, []string{"endpoint"})
	RequestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geotz_request_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	ResolveTierTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotz_resolve_tier_total",
		Help: "Resolved points by matching tier",
	}, []string{"tier"})
	ResolveDurationUs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geotz_resolve_duration_us",
		Help:    "Resolver duration in microseconds",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 20000},
	})
	InvalidInputTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geotz_invalid_input_total",
		Help: "Rejected queries with non-finite coordinates or out-of-range latitude",
	})
	InconsistencyTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geotz_inconsistency_total",
		Help: "Queries that hit a data consistency fault",
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotz_cache_hits_total",
		Help: "Result cache hits by level",
	}, []string{"level"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotz_cache_misses_total",
		Help: "Result cache misses by level",
	}, []string{"level"})
	GeoIPLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geotz_geoip_lookups_total",
		Help: "GeoIP lookups by status",
	}, []string{"status"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geotz_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
	BoundariesLoaded = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "geotz_boundaries_loaded",
		Help: "Boundaries resident per tier",
	}, []string{"tier"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(ResolveTierTotal)
	prometheus.MustRegister(ResolveDurationUs)
	prometheus.MustRegister(InvalidInputTotal)
	prometheus.MustRegister(InconsistencyTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(GeoIPLookupsTotal)
	prometheus.MustRegister(RateLimitedTotal)
	prometheus.MustRegister(BoundariesLoaded)
}

// 文档注释：返回 Prometheus 指标监听器，在主入口挂载到 {API_BASE}/metrics
func Handler() http.Handler { return promhttp.Handler() }
