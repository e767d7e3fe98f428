// Package middleware provides HTTP middleware components for the purchase API.
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var rateLimitExcludedPaths = []string{
	"/health",
	"/metrics",
}

// Counter is a shared windowed counter. Backed by redis in production so the
// budget holds across process instances; a process-local map would silently
// multiply the budget under horizontal scaling.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter implements Counter with INCR plus a TTL set on first increment.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter creates a RedisCounter
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr bumps the key and starts its expiry window on the first hit
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if count == 1 {
		_ = c.client.Expire(ctx, key, window).Err() //nolint:errcheck // key still counts without a window
	}

	return count, nil
}

type rateLimitErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RateLimit creates middleware enforcing a per-client request budget per window.
// The counter store being unreachable fails open: blocking all purchases on a
// redis outage is worse than briefly losing the limit.
func RateLimit(counter Counter, budget int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isRateLimitExcluded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := "billpay:ratelimit:" + clientIP(r)

			count, err := counter.Incr(r.Context(), key, window)
			if err != nil {
				logger.Error("rate limit counter unavailable, allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(budget) {
				logger.Warn("rate limit exceeded",
					"client", clientIP(r),
					"count", count,
					"budget", budget,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				//nolint:errcheck // Best effort response writing
				json.NewEncoder(w).Encode(rateLimitErrorResponse{
					Error:   "rate_limited",
					Message: "too many requests, slow down",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isRateLimitExcluded(path string) bool {
	for _, p := range rateLimitExcludedPaths {
		if path == p {
			return true
		}
	}
	return false
}

// clientIP picks the bucket key for a request. X-Forwarded-For can be a
// comma-separated proxy chain; only the first hop is used so an appended hop
// cannot mint a fresh bucket per request.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
