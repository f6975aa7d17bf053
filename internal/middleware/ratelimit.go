// 包 middleware：入口限流与请求标识
package middleware

import (
	"net/http"
	"os"
	"strconv"

	"golang.org/x/time/rate"

	"world-api/internal/metrics"
)

const defaultQPS = 200

// RateLimit：全局令牌桶限流，超限直接返回 429，不排队
// 约束：突发容量等于每秒速率
func RateLimit(qps int) func(http.Handler) http.Handler {
	if qps <= 0 {
		qps = defaultQPS
	}
	lim := rate.NewLimiter(rate.Limit(qps), qps)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				metrics.RateLimitedTotal.Inc()
				w.Header().Set("retry-after", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Wrap：按环境变量组装入口中间件（RATE_LIMIT_ENABLED / RATE_LIMIT_QPS），并始终附加请求标识
func Wrap(next http.Handler) http.Handler {
	h := next
	if os.Getenv("RATE_LIMIT_ENABLED") == "true" {
		qps := defaultQPS
		if s := os.Getenv("RATE_LIMIT_QPS"); s != "" {
			if n, e := strconv.Atoi(s); e == nil && n > 0 {
				qps = n
			}
		}
		h = RateLimit(qps)(h)
	}
	return RequestID(h)
}
