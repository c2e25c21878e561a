package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"multichat/internal/model"
	"multichat/pkg/logger"
)

// 限制器表超过该规模时整体重建，避免无界增长
const maxTrackedClients = 10000

// RateLimit 按客户端 IP 的令牌桶限流
func RateLimit(requestsPerMinute, burst int) gin.HandlerFunc {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if burst <= 0 {
		burst = requestsPerMinute
	}

	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	perSecond := rate.Limit(float64(requestsPerMinute) / 60.0)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		if len(limiters) >= maxTrackedClients {
			limiters = make(map[string]*rate.Limiter)
		}
		limiter, ok := limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(perSecond, burst)
			limiters[ip] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			logger.Warnf("客户端 %s 触发限流", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				model.NewError("rate limit exceeded", ""))
			return
		}

		c.Next()
	}
}
