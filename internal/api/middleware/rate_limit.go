package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"dorm-repair/pkg/response"
)

// limiterIdleTTL 单个 IP 的令牌桶闲置多久后回收
const limiterIdleTTL = 10 * time.Minute

// RateLimit 按客户端 IP 的令牌桶限流中间件
// perSec: 每秒补充的令牌数；burst: 桶容量
func RateLimit(perSec float64, burst int) gin.HandlerFunc {
	limiters := cache.New(limiterIdleTTL, limiterIdleTTL)
	var mu sync.Mutex

	get := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if v, ok := limiters.Get(ip); ok {
			// 续期，活跃 IP 不被回收
			limiters.Set(ip, v, cache.DefaultExpiration)
			return v.(*rate.Limiter)
		}
		l := rate.NewLimiter(rate.Limit(perSec), burst)
		limiters.Set(ip, l, cache.DefaultExpiration)
		return l
	}

	return func(c *gin.Context) {
		if !get(c.ClientIP()).Allow() {
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
