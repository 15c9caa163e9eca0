package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/kbukum/statekit/resilience"
)

// RateLimit rejects requests with 429 once the shared token bucket is empty.
// The daemon applies it to the action endpoint only.
func RateLimit(rl *resilience.RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
