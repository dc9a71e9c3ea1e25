package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter 基于令牌桶的单机限流中间件，按客户端 IP 分桶。
// 闲置超过 cleanupAfter 的桶会被回收。
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter

	rps   rate.Limit
	burst int

	cleanupAfter time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter 创建限流中间件
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters:     make(map[string]*clientLimiter),
		rps:          rate.Limit(rps),
		burst:        burst,
		cleanupAfter: 10 * time.Minute,
	}
	go rl.cleanupLoop()
	return rl
}

// Limit 返回限流处理函数
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = time.Now()
	rl.mu.Unlock()

	return cl.limiter.Allow()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-rl.cleanupAfter)
		rl.mu.Lock()
		for key, cl := range rl.limiters {
			if cl.lastSeen.Before(cutoff) {
				delete(rl.limiters, key)
			}
		}
		rl.mu.Unlock()
	}
}
