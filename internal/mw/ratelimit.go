package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// ClientLimiters hands out one token bucket per client key. Buckets idle for
// longer than limiterIdleTTL are dropped.
type ClientLimiters struct {
	mu       sync.Mutex
	limiters *cache.Cache
	r        rate.Limit
	b        int
}

// NewClientLimiters creates limiters allowing r requests per second with burst b.
func NewClientLimiters(r rate.Limit, b int) *ClientLimiters {
	return &ClientLimiters{
		limiters: cache.New(limiterIdleTTL, limiterIdleTTL),
		r:        r,
		b:        b,
	}
}

// Get returns the limiter for key, creating it on first use.
func (l *ClientLimiters) Get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.limiters.Get(key); ok {
		limiter := v.(*rate.Limiter)
		l.limiters.SetDefault(key, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(l.r, l.b)
	l.limiters.SetDefault(key, limiter)
	return limiter
}

// RateLimiter rejects clients exceeding r requests per second with 429.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiters := NewClientLimiters(r, b)
	return func(c *gin.Context) {
		if !limiters.Get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
