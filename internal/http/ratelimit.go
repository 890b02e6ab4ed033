package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"textbook-ai/internal/contextutil"
)

const (
	// rateLimitCleanupInterval is how often idle client entries are
	// evicted.
	rateLimitCleanupInterval = 5 * time.Minute
)

// RateLimiter enforces a per-IP request budget using token buckets.
// Health checks are exempt so monitoring never gets throttled.
type RateLimiter struct {
	requestsPerMinute int

	mu      sync.Mutex
	clients map[string]*clientLimiter
	// lastCleanup tracks when idle entries were last evicted.
	lastCleanup time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a per-IP rate limiter.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		clients:           make(map[string]*clientLimiter),
		lastCleanup:       time.Now(),
	}
}

// limiterFor returns the limiter for an IP, creating it on first sight
// and opportunistically evicting idle entries.
func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastCleanup) > rateLimitCleanupInterval {
		for addr, client := range rl.clients {
			if now.Sub(client.lastSeen) > rateLimitCleanupInterval {
				delete(rl.clients, addr)
			}
		}
		rl.lastCleanup = now
	}

	client, ok := rl.clients[ip]
	if !ok {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.requestsPerMinute)/60.0), rl.requestsPerMinute),
		}
		rl.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter
}

// Middleware wraps a handler with the rate limit. Rejected requests get
// a 429 with a Retry-After hint.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}

		limiter := rl.limiterFor(clientIP(r))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMinute))

		if !limiter.Allow() {
			logger := contextutil.LoggerFromContext(r.Context())
			logger.WarnContext(r.Context(), "rate limit exceeded", "remote_addr", r.RemoteAddr)

			// Time until one token refills.
			retryAfter := int(60.0/float64(rl.requestsPerMinute)) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":       "Rate limit exceeded. Please try again later.",
				"retry_after": retryAfter,
			})
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		next.ServeHTTP(w, r)
	})
}
