package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// attemptLog 记录单个 IP 在滑动窗口内的请求时间
type attemptLog struct {
	times []time.Time
}

// prune 丢掉窗口外的时间戳，返回剩余次数
func (a *attemptLog) prune(cutoff time.Time) int {
	kept := a.times[:0]
	for _, ts := range a.times {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	a.times = kept
	return len(kept)
}

// LoginRateLimit 登录/注册接口限流中间件。
// 按客户端 IP 做滑动窗口计数，窗口内超过 maxAttempts 次返回 429。
// 状态在闭包内，不同路由组各自独立计数。
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		attempts = make(map[string]*attemptLog)
	)

	// 后台定期清掉不再活跃的 IP，避免 map 无限增长
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			mu.Lock()
			cutoff := time.Now().Add(-window)
			for ip, a := range attempts {
				if a.prune(cutoff) == 0 {
					delete(attempts, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		a, ok := attempts[ip]
		if !ok {
			a = &attemptLog{}
			attempts[ip] = a
		}
		if a.prune(now.Add(-window)) >= maxAttempts {
			mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "登录尝试过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}
		a.times = append(a.times, now)
		mu.Unlock()

		c.Next()
	}
}
