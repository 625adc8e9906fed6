package middleware

import (
	"net/http"
	"sync"
	"time"

	"geotz/internal/logger"
	"geotz/internal/metrics"
)

// 文档注释：令牌桶限流中间件（每秒）
// 背景：批量接口与 IP 查询会放大单次请求成本，在流量峰值时对入口限速。
// 约束：不做排队，超限直接返回 429；每秒整体补满，不做平滑。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	now      func() time.Time
	mu       sync.Mutex
}

func NewTokenBucket(rps int) *TokenBucket {
	return &TokenBucket{capacity: rps, tokens: rps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimit：rps<=0 时原样返回 next
func RateLimit(rps int, next http.Handler) http.Handler {
	if rps <= 0 {
		return next
	}
	tb := NewTokenBucket(rps)
	logger.L().Debug("rate_limit_enabled", "rps", rps)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.Allow() {
			metrics.RateLimitedTotal.Inc()
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
