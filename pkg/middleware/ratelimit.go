package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/ratelimit"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// RateLimit 按客户端 IP 限流，超限返回 429；限流器不可用时放行
func RateLimit(limiter ratelimit.RateLimiter, scope string, cfg config.RateLimitConfig) gin.HandlerFunc {
	limit := ratelimit.PerSecond(cfg.QPS, cfg.Burst)
	if limit.Burst <= 0 {
		limit.Burst = limit.Rate
	}
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		res, err := limiter.Allow(c.Request.Context(), ratelimit.Key(scope, c.ClientIP()), limit)
		if err != nil {
			logger.Warn(c.Request.Context(), "Rate limiter unavailable, request allowed", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(res.ResetAfter/time.Second), 10))

		if !res.Allowed {
			c.Header("Retry-After", strconv.FormatInt(res.RetryAfterSeconds(), 10))
			response.ErrorWithStatus(c, http.StatusTooManyRequests, "rate_limited", "retry after "+res.RetryAfter.String())
			return
		}
		c.Next()
	}
}
