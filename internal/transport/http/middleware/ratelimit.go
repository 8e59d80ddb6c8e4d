package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/cache"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*rateLimiter)

type rateLimiter struct {
	limit   int
	window  time.Duration
	keyFn   RateLimitKeyFunc
	counter cache.Counter
	log     zerolog.Logger
}

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(rl *rateLimiter) {
		if fn != nil {
			rl.keyFn = fn
		}
	}
}

// MutationRateLimit caps POST, PUT, PATCH and DELETE requests per actor,
// or per client IP for anonymous callers. Reads pass through. When the
// counter fails the request is let through and the failure logged.
func MutationRateLimit(limit int, window time.Duration, counter cache.Counter, log zerolog.Logger, opts ...RateLimitOption) func(http.Handler) http.Handler {
	rl := &rateLimiter{limit: limit, window: window, keyFn: actorOrIPKey, counter: counter, log: log}
	for _, opt := range opts {
		opt(rl)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isMutation(r.Method) && !rl.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func actorOrIPKey(r *http.Request) string {
	if actor, ok := GetActor(r); ok {
		return "actor:" + actor.EmployeeID
	}
	return "ip:" + clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		if value := strings.TrimSpace(parts[0]); value != "" {
			return value
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func (rl *rateLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if rl.limit <= 0 || rl.counter == nil {
		return true
	}

	key := rl.keyFn(r)
	count, resetIn, err := rl.counter.Hit(r.Context(), "rate:"+key, rl.window)
	if err != nil {
		rl.log.Warn().Err(err).Str("key", key).Msg("rate limit counter unavailable")
		return true
	}
	remaining := rl.limit - count
	resetSec := durationSeconds(resetIn)

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))

	if count > rl.limit {
		w.Header().Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
		rl.log.Warn().
			Str("key", key).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Int("limit", rl.limit).
			Dur("window", rl.window).
			Msg("rate limit exceeded")
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
		return false
	}
	return true
}

func durationSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	seconds := int(d.Seconds())
	if seconds <= 0 {
		return 1
	}
	return seconds
}
