package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/types"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per client IP
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	lastGC   time.Time
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per IP with an equal burst
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

// Allow reports whether ip may make another request now
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.collect(now)

	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// collect drops idle limiters at most once per idle period
func (rl *RateLimiter) collect(now time.Time) {
	if now.Sub(rl.lastGC) < rl.idleTTL {
		return
	}
	for ip, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > rl.idleTTL {
			delete(rl.limiters, ip)
		}
	}
	rl.lastGC = now
}

// Middleware rejects clients over budget with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := time.Duration(float64(time.Second) / float64(rl.limit))
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			api.RespondWithError(c, types.NewRateLimitError(retryAfter))
			return
		}
		c.Next()
	}
}
