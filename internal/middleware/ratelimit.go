package myMiddleware

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is the admission-control predicate consulted before expensive
// endpoints. Counters are fixed per-IP windows kept in Redis, so limits hold
// across server restarts.
type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Allow increments the window counter for (name, identity) and reports
// whether the request is within budget. Redis being down fails open: chat
// availability wins over rate enforcement.
func (rl *RateLimiter) Allow(ctx context.Context, name, identity string, max int, window time.Duration) bool {
	key := "ratelimit:" + name + ":" + identity

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("ratelimit: redis incr failed: %v", err)
		return true
	}
	if count == 1 {
		rl.redis.Expire(ctx, key, window)
	}
	return count <= int64(max)
}

// Limit wraps a handler with a per-IP fixed-window limit.
func (rl *RateLimiter) Limit(name string, max int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(r.Context(), name, clientIP(r), max, window) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "too many requests, try later"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
