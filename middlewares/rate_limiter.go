package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands each client IP its own token bucket. Idle entries are
// swept so the map does not grow without bound.
type RateLimiter struct {
	mu        sync.Mutex
	ips       map[string]*ipEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

func NewRateLimiter(requests int, intervalSeconds int) *RateLimiter {
	interval := time.Duration(intervalSeconds) * time.Second
	return &RateLimiter{
		ips:       make(map[string]*ipEntry),
		limit:     rate.Every(interval / time.Duration(requests)),
		burst:     requests,
		lastSweep: time.Now(),
	}
}

// NewStrictRateLimiter guards the login endpoint.
func NewStrictRateLimiter() gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Every(1*time.Minute), 5)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many attempts, please wait a moment",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > 10*time.Minute {
		for key, entry := range rl.ips {
			if now.Sub(entry.lastSeen) > 10*time.Minute {
				delete(rl.ips, key)
			}
		}
		rl.lastSweep = now
	}

	entry, ok := rl.ips[ip]
	if !ok {
		entry = &ipEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.ips[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
