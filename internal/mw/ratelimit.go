package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// idleEviction is how long a client bucket may sit unused before it is
// dropped on the next sweep.
const idleEviction = 10 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client address. Idle buckets
// are swept out so the map does not grow with every address that ever
// connected.
type IPRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	r         rate.Limit
	b         int
	lastSweep time.Time
}

// NewIPRateLimiter creates a limiter granting rate r with burst b per IP.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		clients:   make(map[string]*clientBucket),
		r:         r,
		b:         b,
		lastSweep: time.Now(),
	}
}

// GetLimiter returns the rate limiter for an IP address, creating it on
// first sight.
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > idleEviction {
		l.sweep(now)
	}

	bucket, ok := l.clients[ip]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(l.r, l.b)}
		l.clients[ip] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter
}

// sweep drops buckets idle longer than the eviction window. Caller holds mu.
func (l *IPRateLimiter) sweep(now time.Time) {
	for ip, bucket := range l.clients {
		if now.Sub(bucket.lastSeen) > idleEviction {
			delete(l.clients, ip)
		}
	}
	l.lastSweep = now
}

// RateLimiter is a middleware for IP-based rate limiting.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
