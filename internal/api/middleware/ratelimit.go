package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bcnelson/recipe-api/internal/domain"
	"github.com/bcnelson/recipe-api/internal/ratelimit"
)

// RateLimit rejects requests from a client IP once its bucket is empty.
// The key is the connection's remote address; install chi's RealIP ahead
// of it only behind a trusted proxy.
func RateLimit(limiter *ratelimit.KeyedRateLimiter, retryAfter time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", formatSeconds(retryAfter))
				writeError(w, http.StatusTooManyRequests, domain.ErrCodeRateLimited,
					"request was throttled")
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

func formatSeconds(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
