// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
)

// RequestID propagates the caller's X-Request-ID or generates one. It
// runs first so every log line and error envelope carries the id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// requestID returns the correlation id set by RequestID.
func requestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// AccessLog emits one structured line per request. Level follows the
// outcome: 5xx at error, 4xx at warn, everything else at info.
func AccessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := c.Writer.Status()
		l := log.With().
			Str("request_id", requestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Logger()

		switch {
		case status >= 500:
			l.Error().Msg("request")
		case status >= 400:
			l.Warn().Msg("request")
		default:
			l.Info().Msg("request")
		}
	}
}

// Recovery converts a handler panic into a JSON 500 envelope, keeping
// the correlation id on the response.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", requestID(c)).
					Msg("panic recovered")

				if !c.Writer.Written() {
					fail(c, http.StatusInternalServerError, codeInternal, "internal server error")
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// visitor is one client's token bucket.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keys token buckets by client IP. Idle buckets are evicted
// after ttl to bound memory; eviction runs opportunistically during
// lookups.
type rateLimiter struct {
	rps   rate.Limit
	burst int
	ttl   time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
	lookups  int
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		ttl:      10 * time.Minute,
		visitors: make(map[string]*visitor),
	}
}

func (rl *rateLimiter) get(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= 5000 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// RateLimit enforces a per-IP token bucket. rps <= 0 disables limiting.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	rl := newRateLimiter(rps, burst)
	return func(c *gin.Context) {
		if rl.get(c.ClientIP()).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		fail(c, http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded")
	}
}
