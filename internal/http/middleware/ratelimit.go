// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// Every expand or evolve request costs a paid generation call, so buckets are
// keyed per brand: one brand's batch job cannot exhaust another's budget.
// Requests without a brand fall back to the client IP. Replays detected by
// IdempotencyValidator skip the limiter.
//
// The limiter is process-local; it bounds cost per instance, not globally.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc maps a request to its bucket identity.
type keyFunc func(*gin.Context) string

// KeyByBrandOrIP keys buckets by brand ("brand:acme"), falling back to the
// client IP ("ip:203.0.113.7") when no brand is set.
func KeyByBrandOrIP() keyFunc {
	return func(c *gin.Context) string {
		if b := BrandFrom(c); b != "" {
			return "brand:" + b
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token bucket. Buckets idle for longer than ttl
// are swept every sweepEvery lookups. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups uint64

	ttl        time.Duration
	sweepEvery uint64
}

// NewRateLimiter returns a limiter refilling rps tokens per second up to
// burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:        rate.Limit(rps),
		burst:      burst,
		keyFn:      keyFn,
		buckets:    make(map[string]*bucket),
		ttl:        10 * time.Minute,
		sweepEvery: 5000,
	}
}

// limiterFor returns the bucket for key, creating it if needed. The sweep
// runs first so a stale bucket for key is replaced, not refreshed.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= rl.sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay, which costs no tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns a Gin middleware that enforces per-key token-bucket limits.
// Only methods in methods are limited; an empty list limits every request.
// Rejected requests get 429, a Retry-After hint and the standard error body:
//
//	{ "request_id": "<uuid>", "code": "too_many_requests", "message": "rate limit exceeded" }
func (rl *RateLimiter) Handler(methods ...string) gin.HandlerFunc {
	limited := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		limited[m] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := limited[c.Request.Method]; len(limited) > 0 && !ok {
			c.Next()
			return
		}
		if IsRateBypass(c) {
			c.Next()
			return
		}

		key := rl.keyFn(c)
		r := rl.limiterFor(key).Reserve()
		if r.OK() && r.Delay() == 0 {
			c.Next()
			return
		}
		retry := 1
		if r.OK() {
			retry = int(math.Ceil(r.Delay().Seconds()))
			r.Cancel()
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		LoggerFrom(c).Warn().Str("bucket", key).Int("retry_after_s", retry).Msg("rate limited")

		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
