package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/william165-bot/net-hunter/internal/auth"
	pkghttp "github.com/william165-bot/net-hunter/pkg/http"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultAuthRateLimit returns default rate limit config for credential endpoints (5 requests per minute)
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 5}
}

// RateLimitByIP limits requests per client IP. The IP comes from the
// resolver so spoofed forwarding headers from untrusted peers are ignored.
func RateLimitByIP(config RateLimitConfig, ips *pkghttp.IPResolver) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return "ip:" + ips.ClientIP(r), nil
		}),
		httprate.WithLimitHandler(limitExceeded),
	)
}

// RateLimitByUser limits requests per signed-in account, falling back to the
// client IP for anonymous requests. Must run after auth.Authenticate.
func RateLimitByUser(config RateLimitConfig, ips *pkghttp.IPResolver) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if email, ok := auth.IdentifyUser(r); ok {
				return "user:" + email, nil
			}
			return "ip:" + ips.ClientIP(r), nil
		}),
		httprate.WithLimitHandler(limitExceeded),
	)
}

func limitExceeded(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteTooManyRequests(w, "Too many requests, try again later")
}
