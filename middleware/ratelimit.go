package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	sweepEvery = 5 * time.Minute
	idleAfter  = 10 * time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiters struct {
	mu    sync.Mutex
	r     rate.Limit
	b     int
	items map[string]*ipLimiter
}

func newIPLimiters(r rate.Limit, b int) *ipLimiters {
	return &ipLimiters{r: r, b: b, items: make(map[string]*ipLimiter)}
}

func (l *ipLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	il, ok := l.items[ip]
	if !ok {
		il = &ipLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.items[ip] = il
	}
	il.lastSeen = time.Now()
	return il.limiter.Allow()
}

// sweep drops entries not seen since cutoff.
func (l *ipLimiters) sweep(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, il := range l.items {
		if il.lastSeen.Before(cutoff) {
			delete(l.items, ip)
		}
	}
}

func (l *ipLimiters) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// run sweeps every interval until ctx ends.
func (l *ipLimiters) run(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.sweep(now.Add(-idle))
		}
	}
}

// RateLimit provides per-IP token-bucket rate limiting.
// r = requests per second, b = burst size. Idle entries are swept until ctx ends.
func RateLimit(ctx context.Context, r rate.Limit, b int) gin.HandlerFunc {
	limiters := newIPLimiters(r, b)
	go limiters.run(ctx, sweepEvery, idleAfter)

	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
